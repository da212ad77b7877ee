package verification

import "time"

// AssertFormat fails unless the candidate is exactly 8 ASCII digits.
func AssertFormat(code string) error {
	if len(code) != 8 {
		return ErrInvalidFormat()
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return ErrInvalidFormat()
		}
	}
	return nil
}

// AssertRedeemable fails when the code is missing, used or expired.
func AssertRedeemable(c *Code, now time.Time) error {
	if c == nil {
		return ErrNotFound()
	}
	if c.Used {
		return ErrAlreadyUsed()
	}
	if c.Expired(now) {
		return ErrExpired()
	}
	return nil
}

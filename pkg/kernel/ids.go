package kernel

// Typed identifiers shared across bounded contexts. Keeping them in kernel
// avoids import cycles between the iam packages.

type UserID string

func NewUserID(id string) UserID { return UserID(id) }
func (u UserID) String() string  { return string(u) }
func (u UserID) IsEmpty() bool   { return string(u) == "" }

type ProjectID string

func NewProjectID(id string) ProjectID { return ProjectID(id) }
func (p ProjectID) String() string     { return string(p) }
func (p ProjectID) IsEmpty() bool      { return string(p) == "" }

type RoleID string

func NewRoleID(id string) RoleID { return RoleID(id) }
func (r RoleID) String() string  { return string(r) }
func (r RoleID) IsEmpty() bool   { return string(r) == "" }

package lmsapi

// Roles.
const (
	RoleAdmin    = "admin"
	RoleEmployee = "employee"
)

// User is the signed-in principal returned by /api/auth/me.
type User struct {
	EmployeeID   string `json:"employee_id"`
	EmployeeName string `json:"employee_name"`
	Email        string `json:"email"`
	Department   string `json:"department,omitempty"`
	Role         string `json:"role"`
}

// IsAdmin reports whether u has the admin role.
func (u User) IsAdmin() bool { return u.Role == RoleAdmin }

// LoginResponse is the token issued by /api/auth/login.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Employee is an employee record as listed by admins.
type Employee struct {
	EmployeeID   string `json:"employee_id"`
	EmployeeName string `json:"employee_name"`
	Email        string `json:"email"`
	Department   string `json:"department,omitempty"`
	Role         string `json:"role"`
}

// NewEmployee is the request body for creating an employee.
type NewEmployee struct {
	EmployeeID   string `json:"employee_id" validate:"required,max=50"`
	EmployeeName string `json:"employee_name" validate:"required,max=255"`
	Email        string `json:"email" validate:"required,email"`
	Department   string `json:"department,omitempty" validate:"omitempty,max=100"`
	Role         string `json:"role" validate:"required,oneof=admin employee"`
	Password     string `json:"password" validate:"required,min=6"`
}

// StudyLink is a reference link attached to a course.
type StudyLink struct {
	LinkID   string `json:"link_id"`
	LinkURL  string `json:"link_url"`
	CourseID string `json:"course_id,omitempty"`
}

// NewStudyLink is the request body for adding a link to a course.
type NewStudyLink struct {
	LinkID   string `json:"link_id" validate:"required,max=50"`
	LinkURL  string `json:"link_url" validate:"required,url"`
	CourseID string `json:"course_id" validate:"required,max=50"`
}

// CourseDetail is a course as an employee opens it.
type CourseDetail struct {
	CourseID   string   `json:"course_id"`
	CourseName string   `json:"course_name"`
	Links      []string `json:"links"`
	Questions  []string `json:"questions"`
	Status     string   `json:"status,omitempty"`
	DueDate    string   `json:"due_date,omitempty"`
}

// ProfileDetails is an employee's self-maintained profile.
type ProfileDetails struct {
	EmployeeID      string   `json:"employee_id"`
	BriefProfile    *string  `json:"brief_profile"`
	PrimarySkills   []string `json:"primary_skills"`
	SecondarySkills []string `json:"secondary_skills"`
	PastProjects    []string `json:"past_projects"`
	Certifications  []string `json:"certifications"`
}

// ProfileUpdate is the request body for updating profile details. Nil
// fields are left unchanged.
type ProfileUpdate struct {
	BriefProfile    *string  `json:"brief_profile,omitempty"`
	PrimarySkills   []string `json:"primary_skills,omitempty"`
	SecondarySkills []string `json:"secondary_skills,omitempty"`
	PastProjects    []string `json:"past_projects,omitempty"`
	Certifications  []string `json:"certifications,omitempty"`
}

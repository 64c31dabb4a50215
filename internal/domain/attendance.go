package domain

// AttendanceImage links a hosted clock-in/out photo to the employee who took it.
type AttendanceImage struct {
	EmployeeID string
	URL        string
}

package recognition

// Match is a successful attendance mark.
type Match struct {
	Name       string
	RollNumber string
	Time       string // backend wall-clock time, HH:MM:SS
	Message    string
}

// Registration is the data enrolled with a face.
type Registration struct {
	Name       string
	RollNumber string
}

// Confirmation is a successful registration.
type Confirmation struct {
	Name       string
	RollNumber string
	Message    string
}

// AttendanceEntry is one row of the backend's attendance list.
type AttendanceEntry struct {
	RollNumber string  `json:"roll_number"`
	Name       string  `json:"name"`
	Status     string  `json:"attendance_status"`
	Time       *string `json:"time"`
}

type userPayload struct {
	Name       string `json:"name"`
	RollNumber string `json:"roll_number"`
	Time       string `json:"time"`
}

type markAttendanceResponse struct {
	Message string       `json:"message"`
	User    *userPayload `json:"user"`
}

type registerResponse struct {
	Message string       `json:"message"`
	User    *userPayload `json:"user"`
}

type attendanceListResponse struct {
	Attendance []AttendanceEntry `json:"attendance"`
}

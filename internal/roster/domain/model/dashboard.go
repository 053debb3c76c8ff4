package model

import "time"

// RecentEnrollment is a synthetic dashboard row
type RecentEnrollment struct {
	Student Student   `json:"student"`
	Course  Course    `json:"course"`
	Date    time.Time `json:"date"`
}

// DashboardStats is recomputed on every request
type DashboardStats struct {
	TotalStudents      int                `json:"totalStudents"`
	TotalCourses       int                `json:"totalCourses"`
	StudentCourseRatio string             `json:"studentCourseRatio"`
	RecentEnrollments  []RecentEnrollment `json:"recentEnrollments"`
}

// HealthStatus is the remote API health report
type HealthStatus struct {
	Status  string                 `json:"status"`
	Details map[string]interface{} `json:"details,omitempty"`
}

package dto

// ListQuery captures common pagination parameters for catalog listings.
type ListQuery struct {
	Page     int `form:"page"`
	PageSize int `form:"pageSize"`
}

// LockRequest toggles the lock flag on an assignment.
type LockRequest struct {
	Locked bool `json:"locked"`
}

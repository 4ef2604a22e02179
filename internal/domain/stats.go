package domain

import "time"

// CollegeStat — количество документов по подразделению владельца.
type CollegeStat struct {
	College    string `json:"college"`
	PaperCount int    `json:"paper_count"`
}

// DashboardStats — сводка для панели администратора.
type DashboardStats struct {
	TotalPapers int           `json:"total_papers"`
	ByCollege   []CollegeStat `json:"by_college"`
	UpdateTime  time.Time     `json:"update_time"`
}

// AuditLog — запись журнала операций.
type AuditLog struct {
	ID              int64      `json:"id" db:"id"`
	UserID          string     `json:"user_id" db:"user_id"`
	Username        string     `json:"username" db:"username"`
	OperationType   string     `json:"operation_type" db:"operation_type"`
	OperationPath   string     `json:"operation_path" db:"operation_path"`
	OperationParams *string    `json:"operation_params,omitempty" db:"operation_params"`
	IPAddress       *string    `json:"ip_address,omitempty" db:"ip_address"`
	OperationTime   *time.Time `json:"operation_time,omitempty" db:"operation_time"`
	Status          string     `json:"status" db:"status"`
}

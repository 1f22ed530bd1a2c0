package entity

import "time"

// Evaluation outcomes stored in EvaluationRecord.Status.
const (
	EvaluationStatusSucceeded int8 = 1
	EvaluationStatusBadInput  int8 = 2
	EvaluationStatusFailed    int8 = 3
)

// EvaluationRecord is one /predict call: what was uploaded and how the model
// scored on it.
type EvaluationRecord struct {
	ID            uint      `gorm:"primaryKey;column:id" json:"id"`
	RequestID     string    `gorm:"column:request_id;size:36;uniqueIndex" json:"request_id"`
	FileName      string    `gorm:"column:file_name;size:255" json:"file_name"`
	RowCount      int       `gorm:"column:row_count" json:"row_count"`
	PositiveCount int       `gorm:"column:positive_count" json:"positive_count"` // rows with quality above the threshold
	F1Score       *float64  `gorm:"column:f1_score" json:"f1_score"`
	Average       string    `gorm:"column:average;size:16" json:"average"`
	Status        int8      `gorm:"column:status" json:"status"` // 1:成功｜2:输入错误｜3:失败
	ErrorMessage  string    `gorm:"column:error_message;size:1024" json:"error_message,omitempty"`
	DurationMS    int64     `gorm:"column:duration_ms" json:"duration_ms"`
	ModelPath     string    `gorm:"column:model_path;size:512" json:"model_path"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (EvaluationRecord) TableName() string {
	return "wine_evaluation_records"
}

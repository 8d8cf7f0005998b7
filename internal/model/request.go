package model

import "mime/multipart"

// GradeForm is the multipart payload of the grade and validate endpoints.
type GradeForm struct {
	File          *multipart.FileHeader `form:"file" binding:"required"`
	OptionCount   int                   `form:"option_count,default=5" binding:"min=1"`
	QuestionCount int                   `form:"question_count,default=10" binding:"min=1"`
}

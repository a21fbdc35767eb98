package dto

// ── 休假模块 DTO ──

// CreateVacationRequest 休假申请
type CreateVacationRequest struct {
	StartDate string `json:"start_date" binding:"required,isodate"`
	EndDate   string `json:"end_date"   binding:"required,isodate"`
	Reason    string `json:"reason"     binding:"omitempty,max=500"`
}

// ReviewVacationRequest 审批
type ReviewVacationRequest struct {
	Approve bool   `json:"approve"`
	Note    string `json:"note" binding:"omitempty,max=500"`
}

// VacationListRequest 休假列表查询参数
type VacationListRequest struct {
	PaginationRequest
	UserID string `form:"user_id" binding:"omitempty,uuid"`
	Status string `form:"status"  binding:"omitempty,oneof=PENDING APPROVED REJECTED"`
	From   string `form:"from"    binding:"omitempty,isodate"`
	To     string `form:"to"      binding:"omitempty,isodate"`
}

// VacationResponse 休假申请响应
type VacationResponse struct {
	ID         string `json:"id"`
	UserID     string `json:"user_id"`
	UserName   string `json:"user_name,omitempty"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
	Reason     string `json:"reason"`
	Status     string `json:"status"`
	ReviewedBy string `json:"reviewed_by,omitempty"`
	ReviewedAt string `json:"reviewed_at,omitempty"`
	ReviewNote string `json:"review_note,omitempty"`
	CreatedAt  string `json:"created_at"`
}

package dto

// ── 业务活动 DTO ──

// VerifyPaymentRequest 缴费核验
type VerifyPaymentRequest struct {
	Reference string `json:"reference" binding:"required,max=128"`
}

// VerifyEVisaRequest 电子签证核验
type VerifyEVisaRequest struct {
	VisaNumber     string `json:"visa_number"     binding:"required,max=64"`
	PassportNumber string `json:"passport_number" binding:"required,max=64"`
}

// RecordPenaltyRequest 记录罚款
type RecordPenaltyRequest struct {
	OfficerID string `json:"officer_id" binding:"omitempty,uuid"`
	Reference string `json:"reference"  binding:"required,max=128"`
	Amount    int64  `json:"amount"     binding:"required,min=1"`
	Currency  string `json:"currency"   binding:"omitempty,len=3"`
	Reason    string `json:"reason"     binding:"omitempty,max=500"`
}

// ActivityListRequest 活动列表查询
type ActivityListRequest struct {
	PaginationRequest
	ActorID string `form:"actor_id" binding:"omitempty,uuid"`
	Type    string `form:"type"     binding:"omitempty,oneof=PAYMENT_VERIFICATION EVISA_VERIFICATION PENALTY"`
	Status  string `form:"status"   binding:"omitempty,oneof=VALID INVALID ERROR RECORDED"`
}

// ActivityResponse 活动记录
type ActivityResponse struct {
	ID            string                 `json:"id"`
	ActorID       string                 `json:"actor_id"`
	Type          string                 `json:"type"`
	SubjectUserID string                 `json:"subject_user_id,omitempty"`
	Reference     string                 `json:"reference"`
	Status        string                 `json:"status"`
	Details       map[string]interface{} `json:"details,omitempty"`
	CreatedAt     string                 `json:"created_at"`
}

package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"shift-roster/backend/config"
)

const (
	defaultVerifyTimeout = 5 * time.Second
	maxVerifyBodyBytes   = 64 * 1024
)

var ErrVerifierNotConfigured = errors.New("核验服务地址未配置")

// VerificationResult 外部核验结果
type VerificationResult struct {
	Valid   bool                   `json:"valid"`
	Message string                 `json:"message,omitempty"`
	Extra   map[string]interface{} `json:"extra,omitempty"`
}

// Verifier 外部证件/缴费核验
// 单次请求、有超时、不重试；错误由调用方记为 ERROR
type Verifier interface {
	VerifyPayment(ctx context.Context, reference string) (*VerificationResult, error)
	VerifyEVisa(ctx context.Context, visaNumber, passportNumber string) (*VerificationResult, error)
}

// HTTPVerifier 基于 HTTP JSON 接口的核验实现
type HTTPVerifier struct {
	client     *http.Client
	paymentURL string
	evisaURL   string
	apiKey     string
}

// NewHTTPVerifier 创建 HTTPVerifier
func NewHTTPVerifier(cfg *config.VerificationConfig) *HTTPVerifier {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultVerifyTimeout
	}
	return &HTTPVerifier{
		client:     &http.Client{Timeout: timeout},
		paymentURL: cfg.PaymentURL,
		evisaURL:   cfg.EVisaURL,
		apiKey:     cfg.APIKey,
	}
}

func (v *HTTPVerifier) VerifyPayment(ctx context.Context, reference string) (*VerificationResult, error) {
	return v.post(ctx, v.paymentURL, map[string]string{"reference": reference})
}

func (v *HTTPVerifier) VerifyEVisa(ctx context.Context, visaNumber, passportNumber string) (*VerificationResult, error) {
	return v.post(ctx, v.evisaURL, map[string]string{
		"visa_number":     visaNumber,
		"passport_number": passportNumber,
	})
}

func (v *HTTPVerifier) post(ctx context.Context, url string, payload interface{}) (*VerificationResult, error) {
	if url == "" {
		return nil, ErrVerifierNotConfigured
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("构造核验请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if v.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+v.apiKey)
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("核验服务请求失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("核验服务返回状态码 %d", resp.StatusCode)
	}

	var result VerificationResult
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxVerifyBodyBytes)).Decode(&result); err != nil {
		return nil, fmt.Errorf("解析核验结果失败: %w", err)
	}
	return &result, nil
}

package httpapi

import (
	"net/http"
	"strings"

	"github.com/nelsonsanch/Persontx-sub001/internal/models"
	"github.com/nelsonsanch/Persontx-sub001/internal/service"

	"go.uber.org/zap"
)

const apiPrefix = "/compliance/api/v1"

// ComplianceHandler 合规与检查 Handler
type ComplianceHandler struct {
	svc    *service.ComplianceService
	logger *zap.Logger
}

// NewComplianceHandler 创建 Handler
func NewComplianceHandler(svc *service.ComplianceService, logger *zap.Logger) *ComplianceHandler {
	return &ComplianceHandler{svc: svc, logger: logger}
}

type usageReadingRequest struct {
	Reading *float64 `json:"reading"`
}

type usageRollbackRequest struct {
	UsageCounter *float64 `json:"usage_counter"`
	Reason       string   `json:"reason"`
}

// AssetSubresource 分发 /assets/{id}/... 路由
func (h *ComplianceHandler) AssetSubresource(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, apiPrefix+"/assets/")
	assetID, sub, _ := strings.Cut(rest, "/")
	if assetID == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	switch {
	case sub == "compliance" && r.Method == http.MethodGet:
		h.GetCompliance(w, r, assetID)
	case sub == "events" && r.Method == http.MethodPost:
		h.RecordMaintenanceEvent(w, r, assetID)
	case sub == "usage/propose" && r.Method == http.MethodPost:
		h.ProposeUsageReading(w, r, assetID)
	case sub == "usage/confirm" && r.Method == http.MethodPost:
		h.ConfirmUsageReading(w, r, assetID)
	case sub == "usage/rollback" && r.Method == http.MethodPost:
		h.RollbackAssetUsage(w, r, assetID)
	case sub == "usage/proposal" && r.Method == http.MethodDelete:
		h.DiscardUsageProposal(w, r, assetID)
	case sub == "compliance" || sub == "events" || strings.HasPrefix(sub, "usage/"):
		w.WriteHeader(http.StatusMethodNotAllowed)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

// RegisterAsset 登记资产
func (h *ComplianceHandler) RegisterAsset(w http.ResponseWriter, r *http.Request) {
	var asset models.Asset
	if err := readBodyJSON(r, maxBodyBytes, &asset); err != nil {
		badRequest(w, err)
		return
	}
	created, err := h.svc.RegisterAsset(r.Context(), asset)
	if err != nil {
		writeError(w, h.logger, "RegisterAsset", err)
		return
	}
	writeJSON(w, http.StatusCreated, Ok(created))
}

// GetCompliance 查询资产合规状态；带 category 参数时只返回该类别
func (h *ComplianceHandler) GetCompliance(w http.ResponseWriter, r *http.Request, assetID string) {
	if category := r.URL.Query().Get("category"); category != "" {
		status, err := h.svc.DeriveComplianceStatus(r.Context(), assetID, models.Category(category))
		if err != nil {
			writeError(w, h.logger, "DeriveComplianceStatus", err)
			return
		}
		writeJSON(w, http.StatusOK, Ok(status))
		return
	}

	statuses, err := h.svc.DeriveAssetCompliance(r.Context(), assetID)
	if err != nil {
		writeError(w, h.logger, "DeriveAssetCompliance", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(statuses))
}

// RecordMaintenanceEvent 追加维护事件
func (h *ComplianceHandler) RecordMaintenanceEvent(w http.ResponseWriter, r *http.Request, assetID string) {
	var event models.MaintenanceEvent
	if err := readBodyJSON(r, maxBodyBytes, &event); err != nil {
		badRequest(w, err)
		return
	}
	event.AssetID = assetID
	recorded, err := h.svc.RecordMaintenanceEvent(r.Context(), event)
	if err != nil {
		writeError(w, h.logger, "RecordMaintenanceEvent", err)
		return
	}
	writeJSON(w, http.StatusCreated, Ok(recorded))
}

// ProposeUsageReading 上报使用计数
func (h *ComplianceHandler) ProposeUsageReading(w http.ResponseWriter, r *http.Request, assetID string) {
	var req usageReadingRequest
	if err := readBodyJSON(r, maxBodyBytes, &req); err != nil {
		badRequest(w, err)
		return
	}
	if req.Reading == nil {
		writeError(w, h.logger, "ProposeUsageReading", models.NewValidationError("reading", "is required"))
		return
	}
	decision, err := h.svc.ProposeUsageReading(r.Context(), assetID, *req.Reading)
	if err != nil {
		writeError(w, h.logger, "ProposeUsageReading", err)
		return
	}
	if decision.NeedsConfirmation() {
		writeJSON(w, http.StatusAccepted, Warn("usage reading needs confirmation", decision))
		return
	}
	writeJSON(w, http.StatusOK, Ok(decision))
}

// ConfirmUsageReading 确认待确认的使用计数
func (h *ComplianceHandler) ConfirmUsageReading(w http.ResponseWriter, r *http.Request, assetID string) {
	var req usageReadingRequest
	if err := readBodyJSON(r, maxBodyBytes, &req); err != nil {
		badRequest(w, err)
		return
	}
	if req.Reading == nil {
		writeError(w, h.logger, "ConfirmUsageReading", models.NewValidationError("reading", "is required"))
		return
	}
	if err := h.svc.ConfirmUsageReading(r.Context(), assetID, *req.Reading); err != nil {
		writeError(w, h.logger, "ConfirmUsageReading", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"asset_id": assetID, "reading": *req.Reading}))
}

// RollbackAssetUsage 回退使用计数
func (h *ComplianceHandler) RollbackAssetUsage(w http.ResponseWriter, r *http.Request, assetID string) {
	var req usageRollbackRequest
	if err := readBodyJSON(r, maxBodyBytes, &req); err != nil {
		badRequest(w, err)
		return
	}
	if req.UsageCounter == nil {
		writeError(w, h.logger, "RollbackAssetUsage", models.NewValidationError("usage_counter", "is required"))
		return
	}
	if err := h.svc.RollbackAssetUsage(r.Context(), assetID, *req.UsageCounter, req.Reason); err != nil {
		writeError(w, h.logger, "RollbackAssetUsage", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"asset_id": assetID, "usage_counter": *req.UsageCounter}))
}

// DiscardUsageProposal 放弃待确认的使用计数
func (h *ComplianceHandler) DiscardUsageProposal(w http.ResponseWriter, r *http.Request, assetID string) {
	if err := h.svc.DiscardUsageProposal(r.Context(), assetID); err != nil {
		writeError(w, h.logger, "DiscardUsageProposal", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"asset_id": assetID}))
}

// ListPendingProposals 列出待确认的使用计数
func (h *ComplianceHandler) ListPendingProposals(w http.ResponseWriter, r *http.Request) {
	proposals, err := h.svc.ListPendingProposals(r.Context())
	if err != nil {
		writeError(w, h.logger, "ListPendingProposals", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"items": proposals, "total": len(proposals)}))
}

// EvaluateChecklist 提交检查
// 使用计数需要确认时返回 409，result 为校验决定；确认后带 usage_confirmed=true 重新提交
func (h *ComplianceHandler) EvaluateChecklist(w http.ResponseWriter, r *http.Request) {
	var sub models.InspectionSubmission
	if err := readBodyJSON(r, maxBodyBytes, &sub); err != nil {
		badRequest(w, err)
		return
	}
	result, err := h.svc.EvaluateChecklist(r.Context(), sub)
	if err != nil {
		writeError(w, h.logger, "EvaluateChecklist", err)
		return
	}
	writeJSON(w, http.StatusCreated, Ok(result))
}

// GetInspectionResult 查询检查结果
func (h *ComplianceHandler) GetInspectionResult(w http.ResponseWriter, r *http.Request) {
	resultID := strings.TrimPrefix(r.URL.Path, apiPrefix+"/inspections/")
	if resultID == "" || strings.Contains(resultID, "/") {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	result, err := h.svc.GetInspectionResult(r.Context(), resultID)
	if err != nil {
		writeError(w, h.logger, "GetInspectionResult", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(result))
}

// ProjectSchedule 合规排期
// 参数：category, kind, q（忽略重音与大小写）, month, year
func (h *ComplianceHandler) ProjectSchedule(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	month, err := queryInt(q, "month")
	if err != nil {
		writeError(w, h.logger, "ProjectSchedule", err)
		return
	}
	year, err := queryInt(q, "year")
	if err != nil {
		writeError(w, h.logger, "ProjectSchedule", err)
		return
	}
	filter := models.ScheduleFilter{
		Query: strings.TrimSpace(q.Get("q")),
		Month: month,
		Year:  year,
	}
	if v := q.Get("category"); v != "" {
		category := models.Category(v)
		filter.Category = &category
	}
	if v := q.Get("kind"); v != "" {
		kind := models.AssetKind(v)
		filter.Kind = &kind
	}

	entries, err := h.svc.ProjectSchedule(r.Context(), filter)
	if err != nil {
		writeError(w, h.logger, "ProjectSchedule", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"items": entries, "total": len(entries)}))
}

// SaveChecklistDefinition 发布检查表新版本
func (h *ComplianceHandler) SaveChecklistDefinition(w http.ResponseWriter, r *http.Request) {
	var def models.ChecklistDefinition
	if err := readBodyJSON(r, maxBodyBytes, &def); err != nil {
		badRequest(w, err)
		return
	}
	saved, err := h.svc.SaveChecklistDefinition(r.Context(), def)
	if err != nil {
		writeError(w, h.logger, "SaveChecklistDefinition", err)
		return
	}
	writeJSON(w, http.StatusCreated, Ok(saved))
}

// GetThresholds 当前生效的阈值表
func (h *ComplianceHandler) GetThresholds(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, Ok(h.svc.Thresholds().Table()))
}

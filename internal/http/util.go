package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/nelsonsanch/Persontx-sub001/internal/cache"
	"github.com/nelsonsanch/Persontx-sub001/internal/models"

	"go.uber.org/zap"
)

// maxBodyBytes 请求体上限
const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// queryInt 读取整数查询参数，缺省时返回 0，无法解析时返回校验错误
func queryInt(q url.Values, name string) (int, error) {
	v := strings.TrimSpace(q.Get(name))
	if v == "" {
		return 0, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, models.NewValidationError(name, "must be an integer")
	}
	return i, nil
}

func readBodyJSON(r *http.Request, maxBytes int64, out any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBytes))
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return fmt.Errorf("request body is required")
	}
	return json.Unmarshal(body, out)
}

// writeError 把服务层错误映射为 HTTP 状态码
//   - ValidationError → 400
//   - NotFound → 404
//   - AnomalyPending / 无待确认提议 → 409
//   - ConfigurationError 及其它 → 500
func writeError(w http.ResponseWriter, logger *zap.Logger, op string, err error) {
	var pending *models.AnomalyPendingError
	switch {
	case errors.As(err, &pending):
		writeJSON(w, http.StatusConflict, Warn(err.Error(), pending.Decision))
	case errors.Is(err, models.ErrValidation):
		writeJSON(w, http.StatusBadRequest, Fail(err.Error()))
	case errors.Is(err, models.ErrNotFound):
		writeJSON(w, http.StatusNotFound, Fail(err.Error()))
	case errors.Is(err, cache.ErrNoPendingProposal):
		writeJSON(w, http.StatusConflict, Fail(err.Error()))
	case errors.Is(err, models.ErrConfiguration):
		logger.Error(op+" failed on configuration", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail(err.Error()))
	default:
		logger.Error(op+" failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("internal error"))
	}
}

// badRequest 请求体无法解析
func badRequest(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusBadRequest, Fail("invalid request body: "+err.Error()))
}

package admin

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mamahr/waitlist/internal/interfaces/http/common"
	"github.com/mamahr/waitlist/internal/waitlist/domain"
)

type dispatchResultResponse struct {
	Service string `json:"service"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

type dispatchLogResponse struct {
	SubmissionID string                   `json:"submissionId"`
	Role         string                   `json:"role"`
	RoleName     string                   `json:"roleName"`
	Delivered    bool                     `json:"delivered"`
	Results      []dispatchResultResponse `json:"results"`
	CreatedAt    string                   `json:"createdAt"`
	DisplayTime  string                   `json:"displayTime"`
}

type dispatchLogListResponse struct {
	Items []dispatchLogResponse `json:"items"`
	Count int                   `json:"count"`
}

// dispatchLogListHandler は直近の送信結果を新しい順に返す。個人情報は含まない。
func (h *Handler) dispatchLogListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := parseLimit(r.URL.Query().Get("limit"))
		if err != nil {
			common.WriteError(h.logger, w, http.StatusBadRequest, err.Error())
			return
		}

		entries, err := h.logs.Recent(r.Context(), limit)
		if err != nil {
			h.logger.Error().Err(err).Msg("dispatch log の取得に失敗")
			common.WriteError(h.logger, w, http.StatusInternalServerError, "dispatch log の取得に失敗しました")
			return
		}

		items := make([]dispatchLogResponse, 0, len(entries))
		for _, entry := range entries {
			items = append(items, h.mapEntry(entry))
		}
		common.WriteJSON(h.logger, w, http.StatusOK, dispatchLogListResponse{Items: items, Count: len(items)})
	}
}

func (h *Handler) channelListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		channels := h.channels
		if channels == nil {
			channels = []string{}
		}
		common.WriteJSON(h.logger, w, http.StatusOK, map[string][]string{"channels": channels})
	}
}

func (h *Handler) mapEntry(entry domain.DispatchLogEntry) dispatchLogResponse {
	results := make([]dispatchResultResponse, 0, len(entry.Results))
	for _, res := range entry.Results {
		results = append(results, dispatchResultResponse{
			Service: res.Service,
			Success: res.Success,
			Error:   res.Error,
		})
	}
	return dispatchLogResponse{
		SubmissionID: entry.SubmissionID,
		Role:         entry.Role.String(),
		RoleName:     entry.Role.DisplayName(),
		Delivered:    entry.Delivered(),
		Results:      results,
		CreatedAt:    entry.CreatedAt.In(h.location).Format(time.RFC3339),
		DisplayTime:  domain.FormatDisplayTime(entry.CreatedAt, h.location),
	}
}

func parseLimit(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return common.DefaultDispatchLogLimit, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return 0, errLimit
	}
	if limit > common.MaxDispatchLogLimit {
		limit = common.MaxDispatchLogLimit
	}
	return limit, nil
}

var errLimit = errors.New("limit は正の整数で指定してください")

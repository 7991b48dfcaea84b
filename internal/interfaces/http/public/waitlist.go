package public

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/mamahr/waitlist/internal/interfaces/http/common"
	"github.com/mamahr/waitlist/internal/waitlist/application"
	"github.com/mamahr/waitlist/internal/waitlist/domain"
)

type waitlistRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Role        string `json:"role"`
	Description string `json:"description"`
	Website     string `json:"website"`
	Human       bool   `json:"human"`
	URL         string `json:"url"`
}

type waitlistResponse struct {
	Status    string `json:"status"`
	Position  int    `json:"position"`
	Delivered int    `json:"delivered"`
}

// jsonView collects what the pipeline would have shown on the page.
type jsonView struct {
	alerts   []string
	loading  bool
	position int
	success  bool
}

func (v *jsonView) Alert(message string)    { v.alerts = append(v.alerts, message) }
func (v *jsonView) SetLoading(loading bool) { v.loading = loading }

func (v *jsonView) ShowSuccess(position int) {
	v.success = true
	v.position = position
}

func (h *Handler) waitlistSubmitHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, common.MaxWaitlistRequestBody)

		req, err := decodeWaitlistRequest(r)
		if err != nil {
			common.WriteError(h.logger, w, http.StatusBadRequest, err.Error())
			return
		}

		meta := domain.RequestMeta{
			UserAgent: r.UserAgent(),
			Referrer:  r.Referer(),
			URL:       strings.TrimSpace(req.URL),
		}
		if meta.URL == "" {
			meta.URL = meta.Referrer
		}
		input := domain.FormInput{
			Name:        req.Name,
			Email:       req.Email,
			Role:        req.Role,
			Description: req.Description,
			Honeypot:    req.Website,
			Human:       req.Human,
		}

		view := &jsonView{}
		outcome, err := h.pipeline().Submit(r.Context(), input, meta, view)
		if err != nil {
			common.WriteError(h.logger, w, http.StatusConflict, err.Error())
			return
		}

		switch outcome.State {
		case application.StateSuccess:
			delivered := 0
			for _, res := range outcome.Results {
				if res.Success {
					delivered++
				}
			}
			common.WriteJSON(h.logger, w, http.StatusOK, waitlistResponse{
				Status:    "ok",
				Position:  view.position,
				Delivered: delivered,
			})
		case application.StateError:
			common.WriteError(h.logger, w, http.StatusBadGateway, outcome.Alert)
		default:
			resp := common.ErrorResponse{Error: outcome.Alert}
			var formErr *domain.FormError
			if errors.As(outcome.Err, &formErr) {
				resp.Field = formErr.Field
			}
			common.WriteJSON(h.logger, w, http.StatusUnprocessableEntity, resp)
		}
	}
}

func decodeWaitlistRequest(r *http.Request) (waitlistRequest, error) {
	var req waitlistRequest
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return req, fmt.Errorf("Content-Type を指定してください")
	}

	switch mediaType {
	case "application/json":
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			return req, fmt.Errorf("JSON の形式が正しくありません: %w", err)
		}
		return req, nil
	case "application/x-www-form-urlencoded", "multipart/form-data":
		if err := r.ParseMultipartForm(common.MaxWaitlistRequestBody); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			return req, fmt.Errorf("フォームの形式が正しくありません: %w", err)
		}
		req.Name = r.PostFormValue("name")
		req.Email = r.PostFormValue("email")
		req.Role = r.PostFormValue("role")
		req.Description = r.PostFormValue("description")
		req.Website = r.PostFormValue("website")
		req.URL = r.PostFormValue("url")
		req.Human = formBool(r.PostFormValue("human"))
		return req, nil
	default:
		return req, fmt.Errorf("unsupported Content-Type %q", mediaType)
	}
}

// formBool accepts what a checkbox or a script may send.
func formBool(value string) bool {
	value = strings.TrimSpace(value)
	if strings.EqualFold(value, "on") {
		return true
	}
	b, err := strconv.ParseBool(value)
	return err == nil && b
}

package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/shouni/go-storybook-kit/pkg/domain"
	"github.com/shouni/go-storybook-kit/pkg/drafter"
	"github.com/shouni/go-storybook-kit/pkg/generator"
	"github.com/shouni/go-storybook-kit/pkg/imaging"
	"github.com/shouni/go-storybook-kit/pkg/safety"
	"github.com/shouni/go-storybook-kit/pkg/session"
	"github.com/shouni/go-storybook-kit/pkg/synthesis"
)

// maxPhotoUploadBytes は参照写真アップロードの上限です。
const maxPhotoUploadBytes = 16 << 20

type handler struct {
	svc Service
}

type createSessionRequest struct {
	Child    domain.ChildProfile `json:"child"`
	Goal     domain.StoryGoal    `json:"goal"`
	Style    domain.StyleSpec    `json:"style"`
	Strategy string              `json:"strategy,omitempty"`
}

type avatarRequest struct {
	Description string `json:"description"`
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"status": "ok"})
}

func (h *handler) createSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, &domain.ValidationError{Field: "body", Reason: fmt.Sprintf("invalid JSON: %v", err)})
		return
	}

	sess, err := h.svc.CreateSession(req.Child, req.Goal, req.Style, generator.Strategy(req.Strategy))
	if err != nil {
		writeError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, map[string]string{"session_id": sess.ID})
}

func (h *handler) draftStory(w http.ResponseWriter, r *http.Request) {
	story, err := h.svc.DraftStory(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, story)
}

// deriveAvatar は multipart（参照写真）と JSON（自由文の説明）の両方を受け付けます。
func (h *handler) deriveAvatar(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var avatar domain.Avatar
	var err error
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		var photo []byte
		photo, err = readPhoto(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		avatar, err = h.svc.DeriveAvatarFromPhoto(r.Context(), id, photo)
	} else {
		var req avatarRequest
		if decodeErr := json.NewDecoder(r.Body).Decode(&req); decodeErr != nil {
			writeError(w, r, &domain.ValidationError{Field: "body", Reason: fmt.Sprintf("invalid JSON: %v", decodeErr)})
			return
		}
		avatar, err = h.svc.DeriveAvatarFromDescription(r.Context(), id, req.Description)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, avatar)
}

func (h *handler) regenerateAvatar(w http.ResponseWriter, r *http.Request) {
	avatar, err := h.svc.RegenerateAvatar(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, avatar)
}

type illustrateResponse struct {
	CompletedSlots []domain.Slot                     `json:"completed_slots"`
	FailedSlots    map[domain.Slot]string            `json:"failed_slots"`
	Statuses       map[domain.Slot]domain.SlotStatus `json:"statuses"`
}

func (h *handler) illustrateAll(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	result, err := h.svc.IllustrateAll(r.Context(), id, func(done, total int) {
		slog.Debug("挿絵の進捗", "session", id, "done", done, "total", total)
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	statuses, err := h.svc.Statuses(id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := illustrateResponse{
		CompletedSlots: result.CompletedSlots,
		FailedSlots:    make(map[domain.Slot]string, len(result.FailedSlots)),
		Statuses:       statuses,
	}
	for slot, slotErr := range result.FailedSlots {
		resp.FailedSlots[slot] = slotErr.Error()
	}
	render.JSON(w, r, resp)
}

func (h *handler) illustrateSlot(w http.ResponseWriter, r *http.Request) {
	slot, err := domain.ParseSlot(chi.URLParam(r, "slot"))
	if err != nil {
		writeError(w, r, &domain.ValidationError{Field: "slot", Reason: err.Error()})
		return
	}

	asset, err := h.svc.IllustrateSlot(r.Context(), chi.URLParam(r, "id"), slot)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, asset)
}

type assetListResponse struct {
	Assets   []domain.GeneratedAsset           `json:"assets"`
	Statuses map[domain.Slot]domain.SlotStatus `json:"statuses"`
}

func (h *handler) listAssets(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	assets, err := h.svc.Assets(id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	statuses, err := h.svc.Statuses(id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := assetListResponse{Assets: make([]domain.GeneratedAsset, 0, len(assets)), Statuses: statuses}
	for _, asset := range assets {
		resp.Assets = append(resp.Assets, asset)
	}
	render.JSON(w, r, resp)
}

func (h *handler) getAsset(w http.ResponseWriter, r *http.Request) {
	slot, err := domain.ParseSlot(chi.URLParam(r, "slot"))
	if err != nil {
		writeError(w, r, &domain.ValidationError{Field: "slot", Reason: err.Error()})
		return
	}

	assets, err := h.svc.Assets(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	asset, ok := assets[slot]
	if !ok {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, map[string]string{"error": fmt.Sprintf("no asset for slot %s", slot)})
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Write(asset.Data)
}

func (h *handler) exportPDF(w http.ResponseWriter, r *http.Request) {
	data, filename, err := h.svc.ExportPDF(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeAttachment(w, data, filename, "application/pdf")
}

func (h *handler) exportZIP(w http.ResponseWriter, r *http.Request) {
	data, filename, err := h.svc.ExportZIP(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeAttachment(w, data, filename, "application/zip")
}

func readPhoto(r *http.Request) ([]byte, error) {
	if err := r.ParseMultipartForm(maxPhotoUploadBytes); err != nil {
		return nil, &domain.ValidationError{Field: "photo", Reason: fmt.Sprintf("invalid multipart form: %v", err)}
	}
	file, _, err := r.FormFile("photo")
	if err != nil {
		return nil, &domain.ValidationError{Field: "photo", Reason: "photo file is required"}
	}
	defer file.Close()
	return io.ReadAll(file)
}

func writeAttachment(w http.ResponseWriter, data []byte, filename, mimeType string) {
	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Write(data)
}

// writeError はエラーの型からHTTPステータスを決めてJSONで返します。
// 入力不備は 400、不存在は 404、前提不足は 409、外部サービス起因は 502 です。
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		validationErr   *domain.ValidationError
		safetyErr       *safety.ContentSafetyError
		decodeErr       *imaging.ImageDecodeError
		batchErr        *generator.BatchTooLargeError
		notFoundErr     *session.NotFoundError
		preconditionErr *generator.PreconditionError
		providerErr     *synthesis.ProviderError
		responseErr     *synthesis.InvalidResponseError
		structureErr    *drafter.InvalidStoryStructureError
	)

	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &validationErr), errors.As(err, &safetyErr),
		errors.As(err, &decodeErr), errors.As(err, &batchErr):
		status = http.StatusBadRequest
	case errors.As(err, &notFoundErr):
		status = http.StatusNotFound
	case errors.As(err, &preconditionErr):
		status = http.StatusConflict
	case errors.As(err, &providerErr), errors.As(err, &responseErr), errors.As(err, &structureErr):
		status = http.StatusBadGateway
	}

	if status >= 500 {
		slog.Error("リクエストの処理に失敗しました", "path", r.URL.Path, "error", err)
	}
	render.Status(r, status)
	render.JSON(w, r, map[string]string{"error": err.Error()})
}

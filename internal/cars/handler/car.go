package handler

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"carhub/internal/cars/service"
	"carhub/internal/sessions"
	apperrors "carhub/pkg/errors"
	httputil "carhub/pkg/http"
	"carhub/pkg/logger"
	"carhub/pkg/model"

	"github.com/julienschmidt/httprouter"
)

const (
	imagesField     = "images"
	multipartMemory = 32 << 20
)

type CarHandler struct {
	service         service.CarService
	requireSession  sessions.Guard
	maxUpdateImages int
	log             *logger.Logger
}

func NewCarHandler(service service.CarService, requireSession sessions.Guard, maxUpdateImages int, log *logger.Logger) *CarHandler {
	return &CarHandler{
		service:         service,
		requireSession:  requireSession,
		maxUpdateImages: maxUpdateImages,
		log:             log,
	}
}

func (h *CarHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	form, images, err := parseCarForm(r, 0)
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}

	ack, err := h.service.Create(r.Context(), form, images)
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, ack); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *CarHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")

	form, images, err := parseCarForm(r, h.maxUpdateImages)
	if err != nil {
		h.writeError(w, "Update", err)
		return
	}

	if err := h.service.PartialUpdate(r.Context(), id, model.NewCarPatch(form, images)); err != nil {
		h.writeError(w, "Update", err)
		return
	}

	if err := httputil.WriteMessage(w, "Car updated successfully", nil); err != nil {
		h.log.Error("failed to write success response", "handler", "Update", "operation", "WriteMessage", "error", err)
	}
}

func (h *CarHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	cars, err := h.service.ListAll(r.Context())
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	if err := httputil.WriteSuccess(w, cars); err != nil {
		h.log.Error("failed to write success response", "handler", "GetAll", "operation", "WriteSuccess", "error", err)
	}
}

func (h *CarHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	car, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, car); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *CarHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ack, err := h.service.Delete(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "Delete", err)
		return
	}

	if err := httputil.WriteSuccess(w, ack); err != nil {
		h.log.Error("failed to write success response", "handler", "Delete", "operation", "WriteSuccess", "error", err)
	}
}

// MyCars lists the cars owned by the session's email. The query email must
// match the session.
func (h *CarHandler) MyCars(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	email, err := httputil.RequiredQuery(r, "email")
	if err != nil {
		h.writeError(w, "MyCars", err)
		return
	}

	identity, ok := sessions.IdentityFromContext(r.Context())
	if !ok {
		h.writeError(w, "MyCars", apperrors.Unauthorized("unauthorized access"))
		return
	}
	if identity.Email != email {
		h.log.Warn("Owner mismatch on car listing", "session_email", identity.Email, "query_email", email)
		h.writeError(w, "MyCars", apperrors.Forbidden("Forbidden Access"))
		return
	}

	cars, err := h.service.ListByOwnerEmail(r.Context(), email)
	if err != nil {
		h.writeError(w, "MyCars", err)
		return
	}

	if err := httputil.WriteSuccess(w, cars); err != nil {
		h.log.Error("failed to write success response", "handler", "MyCars", "operation", "WriteSuccess", "error", err)
	}
}

func (h *CarHandler) IncrementBookingCount(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	car, err := h.service.IncrementBookingCount(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "IncrementBookingCount", err)
		return
	}

	if err := httputil.WriteMessage(w, "Booking count incremented successfully", car); err != nil {
		h.log.Error("failed to write success response", "handler", "IncrementBookingCount", "operation", "WriteMessage", "error", err)
	}
}

func (h *CarHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *CarHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/cars", h.Create)
	router.PUT("/cars/:id", h.Update)
	router.GET("/allCars", h.GetAll)
	router.GET("/cars/:id", h.GetByID)
	router.DELETE("/cars/:id", h.Delete)
	router.GET("/myCars", h.requireSession(h.MyCars))
	router.PUT("/increment/:id", h.IncrementBookingCount)
}

// parseCarForm reads a multipart car submission. maxImages of 0 means no cap.
func parseCarForm(r *http.Request, maxImages int) (model.CarForm, []model.Image, error) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return model.CarForm{}, nil, apperrors.InvalidInput("Request body too large")
		case errors.Is(err, http.ErrNotMultipart):
			return model.CarForm{}, nil, apperrors.InvalidInput("Expected multipart form data")
		default:
			return model.CarForm{}, nil, apperrors.InvalidInput("Invalid form data")
		}
	}

	form := model.CarForm{
		Model:              r.FormValue("model"),
		Price:              r.FormValue("price"),
		Availability:       r.FormValue("availability"),
		RegistrationNumber: r.FormValue("registrationNumber"),
		Features:           r.FormValue("features"),
		Seats:              r.FormValue("seats"),
		Description:        r.FormValue("description"),
		Location:           r.FormValue("location"),
		Date:               r.FormValue("date"),
		BookingCount:       r.FormValue("bookingCount"),
		BookingStatus:      r.FormValue("bookingStatus"),
		UserName:           r.FormValue("userName"),
		UserEmail:          r.FormValue("userEmail"),
	}

	var files []*multipart.FileHeader
	if r.MultipartForm != nil {
		files = r.MultipartForm.File[imagesField]
	}
	if maxImages > 0 && len(files) > maxImages {
		return model.CarForm{}, nil, apperrors.InvalidInput(fmt.Sprintf("At most %d images can be uploaded", maxImages))
	}

	images := make([]model.Image, 0, len(files))
	for _, fh := range files {
		image, err := readImage(fh)
		if err != nil {
			return model.CarForm{}, nil, apperrors.InvalidInput("Failed to read uploaded image").
				WithDetails(map[string]any{"filename": fh.Filename})
		}
		images = append(images, image)
	}

	return form, images, nil
}

func readImage(fh *multipart.FileHeader) (model.Image, error) {
	f, err := fh.Open()
	if err != nil {
		return model.Image{}, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return model.Image{}, err
	}

	mimeType := fh.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}

	return model.Image{
		Filename: fh.Filename,
		MimeType: strings.TrimSpace(mimeType),
		Size:     fh.Size,
		Data:     base64.StdEncoding.EncodeToString(data),
	}, nil
}

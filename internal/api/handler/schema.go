package handler

import (
	"time"

	"github.com/docvault/document-service/internal/core/domain"
)

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// --- Auth ---

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Username accepts either the username or the email address.
type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type authResponse struct {
	Message     string       `json:"message"`
	AccessToken string       `json:"access_token"`
	User        *domain.User `json:"user"`
}

type profileResponse struct {
	User *domain.User `json:"user"`
}

type usersResponse struct {
	Users []*domain.User `json:"users"`
}

// --- Categories ---

type createCategoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Color       string `json:"color"`
}

type updateCategoryRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Color       *string `json:"color"`
}

type categoriesResponse struct {
	Categories []*domain.Category `json:"categories"`
}

type categoryResponse struct {
	Message  string           `json:"message,omitempty"`
	Category *domain.Category `json:"category"`
}

type categoryDocumentsResponse struct {
	Category  *domain.Category   `json:"category"`
	Documents []documentResponse `json:"documents"`
}

// --- Documents ---

type categoryRefResponse struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

type documentResponse struct {
	ID                int64                `json:"id"`
	Title             string               `json:"title"`
	Filename          string               `json:"filename"`
	FileSize          int64                `json:"file_size"`
	FileSizeFormatted string               `json:"file_size_formatted"`
	FileType          string               `json:"file_type"`
	Description       string               `json:"description"`
	UploadDate        time.Time            `json:"upload_date"`
	UserID            int64                `json:"user_id"`
	Owner             string               `json:"owner"`
	CategoryID        *int64               `json:"category_id"`
	Category          *categoryRefResponse `json:"category"`
	Tags              []string             `json:"tags"`
}

// updateDocumentRequest documents the update body. The handler decodes it by
// hand: category_id may be null and tags may be a list or a CSV string.
type updateDocumentRequest struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	CategoryID  *int64   `json:"category_id"`
	Tags        []string `json:"tags"`
}

type paginationResponse struct {
	Page    int   `json:"page"`
	PerPage int   `json:"per_page"`
	Total   int64 `json:"total"`
	Pages   int   `json:"pages"`
	HasNext bool  `json:"has_next"`
	HasPrev bool  `json:"has_prev"`
}

type documentListResponse struct {
	Documents  []documentResponse `json:"documents"`
	Pagination paginationResponse `json:"pagination"`
}

type documentEnvelope struct {
	Message  string           `json:"message,omitempty"`
	Document documentResponse `json:"document"`
}

type activityResponse struct {
	Events []*domain.DocumentEvent `json:"events"`
}

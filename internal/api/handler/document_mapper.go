package handler

import (
	"github.com/docvault/document-service/internal/core/domain"
	"github.com/docvault/document-service/internal/core/ports"
)

// --- Domain → Response ---

func toDocumentResponse(d *domain.Document) documentResponse {
	resp := documentResponse{
		ID:                d.ID,
		Title:             d.Title,
		Filename:          d.Filename,
		FileSize:          d.FileSize,
		FileSizeFormatted: domain.FormatSize(d.FileSize),
		FileType:          d.FileType,
		Description:       d.Description,
		UploadDate:        d.UploadedAt,
		UserID:            d.OwnerID,
		Owner:             d.OwnerName,
		CategoryID:        d.CategoryID,
		Tags:              d.Tags,
	}
	if d.Category != nil {
		resp.Category = &categoryRefResponse{ID: d.Category.ID, Name: d.Category.Name, Color: d.Category.Color}
	}
	if resp.Tags == nil {
		resp.Tags = []string{}
	}
	return resp
}

func toDocumentResponses(docs []*domain.Document) []documentResponse {
	out := make([]documentResponse, 0, len(docs))
	for _, d := range docs {
		out = append(out, toDocumentResponse(d))
	}
	return out
}

func toPagination(res *ports.ListDocumentsResult) paginationResponse {
	return paginationResponse{
		Page:    res.Page,
		PerPage: res.PerPage,
		Total:   res.Total,
		Pages:   res.TotalPages,
		HasNext: res.HasNext,
		HasPrev: res.HasPrev,
	}
}

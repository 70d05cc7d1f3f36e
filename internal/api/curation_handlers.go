package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/tabsverse/tabsverse-server/internal/domain"
	"github.com/tabsverse/tabsverse-server/internal/service"
	"github.com/tabsverse/tabsverse-server/internal/store"
)

func (s *Server) registerCurationRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listMyCurations",
		Method:      http.MethodGet,
		Path:        "/api/v1/curations",
		Summary:     "List my curations",
		Description: "Returns the caller's curations, newest first",
		Tags:        []string{"Curations"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListMyCurations)

	huma.Register(s.api, huma.Operation{
		OperationID: "listPublicCurations",
		Method:      http.MethodGet,
		Path:        "/api/v1/curations/public",
		Summary:     "List public curations",
		Description: "Returns public curations from every user, newest first",
		Tags:        []string{"Curations"},
	}, s.handleListPublicCurations)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createCuration",
		Method:        http.MethodPost,
		Path:          "/api/v1/curations",
		Summary:       "Create curation",
		Description:   "Creates a curation owned by the caller. cover_path attaches a cover uploaded with POST /api/v1/covers.",
		Tags:          []string{"Curations"},
		DefaultStatus: http.StatusCreated,
		Security:      []map[string][]string{{"bearer": {}}},
	}, s.handleCreateCuration)

	huma.Register(s.api, huma.Operation{
		OperationID: "getCuration",
		Method:      http.MethodGet,
		Path:        "/api/v1/curations/{id}",
		Summary:     "Get curation",
		Description: "Returns a public curation, or a private one owned by the caller",
		Tags:        []string{"Curations"},
	}, s.handleGetCuration)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateCuration",
		Method:      http.MethodPatch,
		Path:        "/api/v1/curations/{id}",
		Summary:     "Update curation",
		Description: "Applies a partial update. A non-zero version must match the stored version.",
		Tags:        []string{"Curations"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateCuration)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deleteCuration",
		Method:        http.MethodDelete,
		Path:          "/api/v1/curations/{id}",
		Summary:       "Delete curation",
		Description:   "Deletes a curation, its tabs, and its cover image",
		Tags:          []string{"Curations"},
		DefaultStatus: http.StatusNoContent,
		Security:      []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteCuration)

	huma.Register(s.api, huma.Operation{
		OperationID:   "recordCurationView",
		Method:        http.MethodPost,
		Path:          "/api/v1/curations/{id}/view",
		Summary:       "Record view",
		Description:   "Increments the curation's view count",
		Tags:          []string{"Curations"},
		DefaultStatus: http.StatusNoContent,
	}, s.handleRecordView)

	huma.Register(s.api, huma.Operation{
		OperationID: "likeCuration",
		Method:      http.MethodPut,
		Path:        "/api/v1/curations/{id}/like",
		Summary:     "Like curation",
		Tags:        []string{"Curations"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleLike)

	huma.Register(s.api, huma.Operation{
		OperationID: "unlikeCuration",
		Method:      http.MethodDelete,
		Path:        "/api/v1/curations/{id}/like",
		Summary:     "Unlike curation",
		Tags:        []string{"Curations"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUnlike)
}

// === DTOs ===

// ListCurationsInput is a page request.
type ListCurationsInput struct {
	Limit  int    `query:"limit" default:"50" minimum:"1" maximum:"200" doc:"Page size"`
	Cursor string `query:"cursor" doc:"Cursor from the previous page"`
}

// CurationListResponse is one page of curations.
type CurationListResponse struct {
	Items      []*domain.Curation `json:"items" doc:"Curations, newest first"`
	NextCursor string             `json:"next_cursor,omitempty" doc:"Cursor for the next page"`
	HasMore    bool               `json:"has_more" doc:"Whether more pages exist"`
}

// CurationListOutput wraps a curation page for Huma.
type CurationListOutput struct {
	Body CurationListResponse
}

// CreateCurationRequest is the create request.
type CreateCurationRequest struct {
	Body service.CreateCurationInput
}

// CurationIDInput addresses one curation.
type CurationIDInput struct {
	ID string `path:"id" doc:"Curation ID"`
}

// UpdateCurationRequest is the update request.
type UpdateCurationRequest struct {
	ID   string `path:"id" doc:"Curation ID"`
	Body service.UpdateCurationInput
}

// CurationOutput wraps a curation for Huma.
type CurationOutput struct {
	Body *domain.Curation
}

// LikeResponse is the like state after a like or unlike.
type LikeResponse struct {
	Liked     bool `json:"liked" doc:"Whether the caller now likes the curation"`
	LikeCount int  `json:"like_count" doc:"Total likes"`
}

// LikeOutput wraps the like state for Huma.
type LikeOutput struct {
	Body LikeResponse
}

// === Handlers ===

func (s *Server) handleListMyCurations(ctx context.Context, input *ListCurationsInput) (*CurationListOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	page, err := s.services.Curations.ListMine(ctx, userID, store.PaginationParams{Limit: input.Limit, Cursor: input.Cursor})
	if err != nil {
		return nil, err
	}
	return &CurationListOutput{Body: toCurationList(page)}, nil
}

func (s *Server) handleListPublicCurations(ctx context.Context, input *ListCurationsInput) (*CurationListOutput, error) {
	page, err := s.services.Curations.ListPublic(ctx, store.PaginationParams{Limit: input.Limit, Cursor: input.Cursor})
	if err != nil {
		return nil, err
	}
	return &CurationListOutput{Body: toCurationList(page)}, nil
}

func (s *Server) handleCreateCuration(ctx context.Context, input *CreateCurationRequest) (*CurationOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	c, err := s.services.Curations.Create(ctx, userID, input.Body)
	if err != nil {
		return nil, err
	}
	return &CurationOutput{Body: c}, nil
}

func (s *Server) handleGetCuration(ctx context.Context, input *CurationIDInput) (*CurationOutput, error) {
	c, err := s.services.Curations.Get(ctx, input.ID, optionalUserID(ctx))
	if err != nil {
		return nil, err
	}
	return &CurationOutput{Body: c}, nil
}

func (s *Server) handleUpdateCuration(ctx context.Context, input *UpdateCurationRequest) (*CurationOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	c, err := s.services.Curations.Update(ctx, input.ID, userID, input.Body)
	if err != nil {
		return nil, err
	}
	return &CurationOutput{Body: c}, nil
}

func (s *Server) handleDeleteCuration(ctx context.Context, input *CurationIDInput) (*struct{}, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Curations.Delete(ctx, input.ID, userID); err != nil {
		return nil, err
	}
	return nil, nil
}

func (s *Server) handleRecordView(ctx context.Context, input *CurationIDInput) (*struct{}, error) {
	if err := s.services.Curations.RecordView(ctx, input.ID, optionalUserID(ctx)); err != nil {
		return nil, err
	}
	return nil, nil
}

func (s *Server) handleLike(ctx context.Context, input *CurationIDInput) (*LikeOutput, error) {
	return s.setLike(ctx, input.ID, true)
}

func (s *Server) handleUnlike(ctx context.Context, input *CurationIDInput) (*LikeOutput, error) {
	return s.setLike(ctx, input.ID, false)
}

func (s *Server) setLike(ctx context.Context, id string, liked bool) (*LikeOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	count, err := s.services.Curations.SetLike(ctx, id, userID, liked)
	if err != nil {
		return nil, err
	}
	return &LikeOutput{Body: LikeResponse{Liked: liked, LikeCount: count}}, nil
}

func toCurationList(page *store.PaginatedResult[*domain.Curation]) CurationListResponse {
	items := page.Items
	if items == nil {
		items = []*domain.Curation{}
	}
	return CurationListResponse{
		Items:      items,
		NextCursor: page.NextCursor,
		HasMore:    page.HasMore,
	}
}

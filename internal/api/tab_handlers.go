package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/tabsverse/tabsverse-server/internal/domain"
	"github.com/tabsverse/tabsverse-server/internal/service"
)

func (s *Server) registerTabRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listTabs",
		Method:      http.MethodGet,
		Path:        "/api/v1/curations/{id}/tabs",
		Summary:     "List tabs",
		Description: "Returns a curation's tabs in position order",
		Tags:        []string{"Tabs"},
	}, s.handleListTabs)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createTab",
		Method:        http.MethodPost,
		Path:          "/api/v1/curations/{id}/tabs",
		Summary:       "Add tab",
		Description:   "Appends a link to a curation. Title, description, thumbnail, type, and tags left empty are filled from the link's metadata.",
		Tags:          []string{"Tabs"},
		DefaultStatus: http.StatusCreated,
		Security:      []map[string][]string{{"bearer": {}}},
	}, s.handleCreateTab)

	huma.Register(s.api, huma.Operation{
		OperationID: "reorderTabs",
		Method:      http.MethodPut,
		Path:        "/api/v1/curations/{id}/tabs/order",
		Summary:     "Reorder tabs",
		Description: "Sets tab positions. tab_ids must list every tab of the curation exactly once.",
		Tags:        []string{"Tabs"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleReorderTabs)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateTab",
		Method:      http.MethodPatch,
		Path:        "/api/v1/tabs/{id}",
		Summary:     "Update tab",
		Tags:        []string{"Tabs"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateTab)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deleteTab",
		Method:        http.MethodDelete,
		Path:          "/api/v1/tabs/{id}",
		Summary:       "Delete tab",
		Tags:          []string{"Tabs"},
		DefaultStatus: http.StatusNoContent,
		Security:      []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteTab)

	huma.Register(s.api, huma.Operation{
		OperationID:   "recordTabClick",
		Method:        http.MethodPost,
		Path:          "/api/v1/tabs/{id}/click",
		Summary:       "Record click",
		Description:   "Increments the tab's click count",
		Tags:          []string{"Tabs"},
		DefaultStatus: http.StatusNoContent,
	}, s.handleRecordClick)
}

// === DTOs ===

// TabListResponse lists a curation's tabs.
type TabListResponse struct {
	Tabs []*domain.Tab `json:"tabs" doc:"Tabs in position order"`
}

// TabListOutput wraps a tab list for Huma.
type TabListOutput struct {
	Body TabListResponse
}

// CreateTabRequest adds a tab to a curation.
type CreateTabRequest struct {
	ID   string `path:"id" doc:"Curation ID"`
	Body service.CreateTabInput
}

// ReorderTabsRequest sets tab order.
type ReorderTabsRequest struct {
	ID   string `path:"id" doc:"Curation ID"`
	Body struct {
		TabIDs []string `json:"tab_ids" doc:"Every tab ID of the curation in the desired order"`
	}
}

// TabIDInput addresses one tab.
type TabIDInput struct {
	ID string `path:"id" doc:"Tab ID"`
}

// UpdateTabRequest is a partial tab update.
type UpdateTabRequest struct {
	ID   string `path:"id" doc:"Tab ID"`
	Body service.UpdateTabInput
}

// TabOutput wraps a tab for Huma.
type TabOutput struct {
	Body *domain.Tab
}

// === Handlers ===

func (s *Server) handleListTabs(ctx context.Context, input *CurationIDInput) (*TabListOutput, error) {
	tabs, err := s.services.Tabs.List(ctx, input.ID, optionalUserID(ctx))
	if err != nil {
		return nil, err
	}
	return &TabListOutput{Body: TabListResponse{Tabs: tabs}}, nil
}

func (s *Server) handleCreateTab(ctx context.Context, input *CreateTabRequest) (*TabOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	tab, err := s.services.Tabs.Create(ctx, input.ID, userID, input.Body)
	if err != nil {
		return nil, err
	}
	return &TabOutput{Body: tab}, nil
}

func (s *Server) handleReorderTabs(ctx context.Context, input *ReorderTabsRequest) (*TabListOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	tabs, err := s.services.Tabs.Reorder(ctx, input.ID, userID, input.Body.TabIDs)
	if err != nil {
		return nil, err
	}
	return &TabListOutput{Body: TabListResponse{Tabs: tabs}}, nil
}

func (s *Server) handleUpdateTab(ctx context.Context, input *UpdateTabRequest) (*TabOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	tab, err := s.services.Tabs.Update(ctx, input.ID, userID, input.Body)
	if err != nil {
		return nil, err
	}
	return &TabOutput{Body: tab}, nil
}

func (s *Server) handleDeleteTab(ctx context.Context, input *TabIDInput) (*struct{}, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Tabs.Delete(ctx, input.ID, userID); err != nil {
		return nil, err
	}
	return nil, nil
}

func (s *Server) handleRecordClick(ctx context.Context, input *TabIDInput) (*struct{}, error) {
	if err := s.services.Tabs.RecordClick(ctx, input.ID, optionalUserID(ctx)); err != nil {
		return nil, err
	}
	return nil, nil
}

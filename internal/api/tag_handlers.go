package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/photoramax/photorama/internal/domain"
)

func (s *Server) registerTagRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listTags",
		Method:      http.MethodGet,
		Path:        "/v1/tags",
		Summary:     "List tags",
		Description: "Returns every tag ordered by name",
		Tags:        []string{"Tags"},
	}, s.handleListTags)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createTag",
		Method:        http.MethodPost,
		Path:          "/v1/tags",
		Summary:       "Create tag",
		Description:   "Creates a tag. Names are not unique.",
		Tags:          []string{"Tags"},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateTag)

	huma.Register(s.api, huma.Operation{
		OperationID: "getTag",
		Method:      http.MethodGet,
		Path:        "/v1/tags/{id}",
		Summary:     "Get tag",
		Tags:        []string{"Tags"},
	}, s.handleGetTag)

	huma.Register(s.api, huma.Operation{
		OperationID: "listPhotoTags",
		Method:      http.MethodGet,
		Path:        "/v1/photos/{id}/tags",
		Summary:     "List tags of a photo",
		Tags:        []string{"Tags"},
	}, s.handleListPhotoTags)

	huma.Register(s.api, huma.Operation{
		OperationID: "addPhotoTag",
		Method:      http.MethodPut,
		Path:        "/v1/photos/{id}/tags/{tagID}",
		Summary:     "Attach tag to photo",
		Description: "Idempotent. Both the photo and the tag must exist.",
		Tags:        []string{"Tags"},
	}, s.handleAddPhotoTag)

	huma.Register(s.api, huma.Operation{
		OperationID: "removePhotoTag",
		Method:      http.MethodDelete,
		Path:        "/v1/photos/{id}/tags/{tagID}",
		Summary:     "Detach tag from photo",
		Description: "Idempotent. Both the photo and the tag must exist.",
		Tags:        []string{"Tags"},
	}, s.handleRemovePhotoTag)
}

// TagResponse contains tag data in API responses.
type TagResponse struct {
	ID        string    `json:"id" doc:"Tag ID"`
	Name      string    `json:"name" doc:"Tag name"`
	CreatedAt time.Time `json:"created_at" doc:"Creation time"`
}

// ListTagsResponse contains a list of tags.
type ListTagsResponse struct {
	Tags []TagResponse `json:"tags" doc:"List of tags"`
}

// ListTagsOutput wraps the list tags response for Huma.
type ListTagsOutput struct {
	Body ListTagsResponse
}

// CreateTagRequest is the request body for creating a tag.
type CreateTagRequest struct {
	Name string `json:"name" minLength:"1" maxLength:"200" doc:"Tag name"`
}

// CreateTagInput wraps the create tag request for Huma.
type CreateTagInput struct {
	Body CreateTagRequest
}

// TagOutput wraps the tag response for Huma.
type TagOutput struct {
	Body TagResponse
}

// TagIDInput addresses one tag.
type TagIDInput struct {
	ID string `path:"id" doc:"Tag ID"`
}

// PhotoTagInput addresses one photo/tag association.
type PhotoTagInput struct {
	ID    string `path:"id" doc:"Photo ID"`
	TagID string `path:"tagID" doc:"Tag ID"`
}

func toTagResponse(t *domain.Tag) TagResponse {
	return TagResponse{ID: t.ID, Name: t.Name, CreatedAt: t.CreatedAt}
}

func toListTagsOutput(tags []*domain.Tag) *ListTagsOutput {
	resp := make([]TagResponse, len(tags))
	for i, t := range tags {
		resp[i] = toTagResponse(t)
	}
	return &ListTagsOutput{Body: ListTagsResponse{Tags: resp}}
}

func (s *Server) handleListTags(ctx context.Context, _ *struct{}) (*ListTagsOutput, error) {
	tags, err := s.photos.Tags(ctx)
	if err != nil {
		return nil, err
	}
	return toListTagsOutput(tags), nil
}

func (s *Server) handleCreateTag(ctx context.Context, input *CreateTagInput) (*TagOutput, error) {
	t, err := awaitDelivery(ctx, func(cb func(*domain.Tag, error)) {
		s.photos.CreateTag(input.Body.Name, cb)
	})
	if err != nil {
		return nil, err
	}
	return &TagOutput{Body: toTagResponse(t)}, nil
}

func (s *Server) handleGetTag(ctx context.Context, input *TagIDInput) (*TagOutput, error) {
	t, err := s.photos.Tag(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &TagOutput{Body: toTagResponse(t)}, nil
}

func (s *Server) handleListPhotoTags(ctx context.Context, input *PhotoIDInput) (*ListTagsOutput, error) {
	// Distinguish an unknown photo from one without tags.
	if _, err := s.photos.Photo(ctx, input.ID); err != nil {
		return nil, err
	}

	tags, err := s.photos.PhotoTags(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return toListTagsOutput(tags), nil
}

func (s *Server) handleAddPhotoTag(ctx context.Context, input *PhotoTagInput) (*struct{}, error) {
	return nil, s.setPhotoTag(ctx, input, true)
}

func (s *Server) handleRemovePhotoTag(ctx context.Context, input *PhotoTagInput) (*struct{}, error) {
	return nil, s.setPhotoTag(ctx, input, false)
}

func (s *Server) setPhotoTag(ctx context.Context, input *PhotoTagInput, member bool) error {
	photo := &domain.Photo{ID: input.ID}
	tag := &domain.Tag{ID: input.TagID}
	_, err := awaitDelivery(ctx, func(cb func(struct{}, error)) {
		s.photos.SetTag(photo, tag, member, func(err error) { cb(struct{}{}, err) })
	})
	return err
}

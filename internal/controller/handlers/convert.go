package handlers

import (
	"encoding/json"

	"veoprompt/internal/store"
	"veoprompt/pkg/api"
)

func toUserResponse(u *store.User) api.UserResponse {
	return api.UserResponse{
		ID:        u.ID.String(),
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}

func toProjectResponse(p *store.Project) api.ProjectResponse {
	return api.ProjectResponse{
		ID:          p.ID.String(),
		UserID:      p.UserID.String(),
		Name:        p.Name,
		Description: p.Description,
		CreatedAt:   p.CreatedAt,
	}
}

func toPromptResponse(p *store.Prompt) api.PromptResponse {
	structured, _ := json.Marshal(p.Structured)
	var projectID *string
	if p.ProjectID != nil {
		id := p.ProjectID.String()
		projectID = &id
	}
	return api.PromptResponse{
		ID:              p.ID.String(),
		UserID:          p.UserID.String(),
		ProjectID:       projectID,
		Niche:           p.Request.Niche,
		Platform:        p.Request.Platform,
		VideoLength:     p.Request.VideoLength,
		Tone:            p.Request.Tone,
		Goal:            p.Request.Goal,
		CustomIdea:      p.Request.CustomIdea,
		GeneratedPrompt: structured,
		RawPromptText:   p.RawText,
		Status:          string(p.Status),
		CreatedAt:       p.CreatedAt,
	}
}

func toVideoResponse(v *store.VideoJob) api.VideoResponse {
	return api.VideoResponse{
		ID:              v.ID.String(),
		UserID:          v.UserID.String(),
		PromptID:        v.PromptID.String(),
		Status:          string(v.Status),
		VideoURL:        v.VideoURL,
		Duration:        v.Duration,
		Resolution:      v.Resolution,
		Platform:        v.Platform,
		CaptionText:     v.CaptionText,
		HashtagsUsed:    v.Hashtags,
		InstagramPostID: v.SocialPostID,
		PostURL:         v.PostURL,
		PostedAt:        v.PostedAt,
		Error:           v.ErrorMessage,
		CreatedAt:       v.CreatedAt,
		CompletedAt:     v.CompletedAt,
	}
}

func toPerformanceResponse(p *store.Performance) api.PerformanceResponse {
	return api.PerformanceResponse{
		VideoID:      p.VideoID.String(),
		Views:        p.Views,
		Likes:        p.Likes,
		Shares:       p.Shares,
		Comments:     p.Comments,
		WatchTimeAvg: p.WatchTimeAvg,
		UpdatedAt:    p.UpdatedAt,
	}
}

package handlers

import (
	"github.com/gofiber/fiber/v3"

	"issuebrowser/internal/config"
)

// BrandingData contains site branding information for templates.
type BrandingData struct {
	SiteTitle   string
	SiteTagline string
	Repository  string
	RepoURL     string
}

// GetBrandingData returns branding data from config for template rendering.
func GetBrandingData(cfg *config.Config) BrandingData {
	return BrandingData{
		SiteTitle:   cfg.SiteTitle,
		SiteTagline: cfg.SiteTagline,
		Repository:  cfg.GitHubRepository,
		RepoURL:     "https://github.com/" + cfg.GitHubRepository,
	}
}

// MergeBranding adds branding data to a fiber.Map for template rendering.
func MergeBranding(data fiber.Map, cfg *config.Config) fiber.Map {
	branding := GetBrandingData(cfg)
	data["SiteTitle"] = branding.SiteTitle
	data["SiteTagline"] = branding.SiteTagline
	data["Repository"] = branding.Repository
	data["RepoURL"] = branding.RepoURL
	return data
}

package catalog

import (
	"encoding/json"
	"strings"

	"github.com/stavren/modelsync/internal/domain"
)

// Catalog wire types. Ids arrive as numbers; they are carried as strings
// everywhere inside the client.

type searchResponse struct {
	Items    []modelDTO  `json:"items"`
	Metadata metadataDTO `json:"metadata"`
}

type metadataDTO struct {
	NextCursor string `json:"nextCursor"`
}

type modelDTO struct {
	ID        json.Number  `json:"id"`
	Name      string       `json:"name"`
	Type      string       `json:"type"`
	BaseModel string       `json:"baseModel"`
	Versions  []versionDTO `json:"modelVersions"`
}

type versionDTO struct {
	ID           json.Number `json:"id"`
	Name         string      `json:"name"`
	BaseModel    string      `json:"baseModel"`
	Availability string      `json:"availability"`
	DownloadURL  string      `json:"downloadUrl"`
	PublishedAt  string      `json:"publishedAt"`
	Files        []fileDTO   `json:"files"`
}

type fileDTO struct {
	Name        string            `json:"name"`
	DownloadURL string            `json:"downloadUrl"`
	SizeKB      float64           `json:"sizeKB"`
	Hashes      map[string]string `json:"hashes"`
}

func mapModels(items []modelDTO) []domain.Model {
	models := make([]domain.Model, 0, len(items))
	for _, it := range items {
		models = append(models, mapModel(it))
	}
	return models
}

func mapModel(dto modelDTO) domain.Model {
	m := domain.Model{
		ID:        dto.ID.String(),
		Name:      dto.Name,
		Type:      dto.Type,
		BaseModel: dto.BaseModel,
	}
	for _, v := range dto.Versions {
		m.Versions = append(m.Versions, mapVersion(v))
	}
	return m
}

func mapVersion(dto versionDTO) domain.ModelVersion {
	v := domain.ModelVersion{
		ID:           dto.ID.String(),
		Name:         dto.Name,
		BaseModel:    dto.BaseModel,
		Availability: dto.Availability,
		DownloadURL:  dto.DownloadURL,
		PublishedAt:  dto.PublishedAt,
	}
	for _, f := range dto.Files {
		file := domain.ModelFile{
			Name:        f.Name,
			DownloadURL: f.DownloadURL,
			SizeKB:      f.SizeKB,
		}
		for k, h := range f.Hashes {
			if strings.EqualFold(k, "SHA256") {
				file.SHA256 = h
			}
		}
		v.Files = append(v.Files, file)
	}
	return v
}

package engine

import "github.com/stavren/modelsync/internal/domain"

// BuildManifest produces the download request payload for one catalog model
// and version. The version is resolved by explicit id, falling back to the
// model's first version. File-level fields come from the first file of the
// resolved version when one exists, otherwise they are left empty and the
// daemon resolves them itself.
func BuildManifest(model domain.Model, versionID string) domain.Manifest {
	version := model.ResolveVersion(versionID)
	m := domain.Manifest{
		ModelID:        model.ID,
		ModelVersionID: version.ID,
		ModelType:      model.Type,
		BaseModel:      version.BaseModel,
		URL:            version.DownloadURL,
	}
	if m.BaseModel == "" {
		m.BaseModel = model.BaseModel
	}
	if len(version.Files) > 0 {
		file := version.Files[0]
		m.Filename = file.Name
		m.SHA256 = file.SHA256
		if file.DownloadURL != "" {
			m.URL = file.DownloadURL
		}
	}
	return m
}

// manifestFor builds a manifest from the catalog snapshot. Items without a
// catalog entry produce nothing to submit; the caller skips them.
func (s *Service) manifestFor(modelID, versionID string) (domain.Manifest, bool) {
	model, ok := s.Model(modelID)
	if !ok {
		return domain.Manifest{}, false
	}
	return BuildManifest(model, versionID), true
}

package service

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/edudata/completion-report-api/internal/models"
	"github.com/edudata/completion-report-api/pkg/slug"
)

const settingsCacheKey = "report:settings"

// Report settings keys in the report_settings table. Conversion keys are
// derived per metadata field from its slugged name, e.g.
// "metadata_conversion_temps_estime_formula".
const (
	settingUseMetadata     = "use_metadata"
	settingMetadataList    = "metadata_list"
	settingNumericMetadata = "numeric_metadata_list"
	settingModulesList     = "modules_list"
)

type settingsCatalog interface {
	Settings(ctx context.Context) (map[string]string, error)
	MetadataFields(ctx context.Context, ids []int64) ([]models.MetadataField, error)
	ModuleTypes(ctx context.Context) ([]models.ModuleType, error)
}

// SettingsService resolves the report settings snapshot for a request,
// caching the resolved form in redis.
type SettingsService struct {
	catalog settingsCatalog
	redis   *redis.Client
	ttl     time.Duration
	logger  *zap.Logger
}

// NewSettingsService constructs the service. The redis client may be nil, in
// which case every resolve hits the database.
func NewSettingsService(catalog settingsCatalog, redisClient *redis.Client, ttl time.Duration, logger *zap.Logger) *SettingsService {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettingsService{catalog: catalog, redis: redisClient, ttl: ttl, logger: logger}
}

// Resolve returns the current report settings, from cache when fresh.
func (s *SettingsService) Resolve(ctx context.Context) (models.ReportSettings, error) {
	if cached, ok := s.fromCache(ctx); ok {
		return cached, nil
	}

	raw, err := s.catalog.Settings(ctx)
	if err != nil {
		return models.ReportSettings{}, err
	}

	settings := models.ReportSettings{
		UseMetadata:    raw[settingUseMetadata] == "1",
		TrackedModules: parseIDList(raw[settingModulesList]),
		Conversions:    map[int64]models.MetadataConversion{},
	}

	displayedIDs := parseIDList(raw[settingMetadataList])
	if settings.UseMetadata && len(displayedIDs) > 0 {
		settings.DisplayedMetadata, err = s.catalog.MetadataFields(ctx, displayedIDs)
		if err != nil {
			return models.ReportSettings{}, err
		}
	}

	numericIDs := parseIDList(raw[settingNumericMetadata])
	if len(numericIDs) > 0 {
		settings.NumericMetadata, err = s.catalog.MetadataFields(ctx, numericIDs)
		if err != nil {
			return models.ReportSettings{}, err
		}
	}

	for _, field := range settings.NumericMetadata {
		key := slug.Key(field.Name)
		conversion := models.MetadataConversion{
			Formula: raw["metadata_conversion_"+key+"_formula"],
			Label:   raw["metadata_conversion_"+key+"_label"],
		}
		if conversion.Formula != "" || conversion.Label != "" {
			settings.Conversions[field.ID] = conversion
		}
	}

	s.toCache(ctx, settings)
	return settings, nil
}

// ModuleTypes lists the trackable module-type catalog.
func (s *SettingsService) ModuleTypes(ctx context.Context) ([]models.ModuleType, error) {
	return s.catalog.ModuleTypes(ctx)
}

// Invalidate drops the cached snapshot, forcing the next resolve to reload.
func (s *SettingsService) Invalidate(ctx context.Context) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Del(ctx, settingsCacheKey).Err(); err != nil {
		s.logger.Warn("settings cache invalidate failed", zap.Error(err))
	}
}

func (s *SettingsService) fromCache(ctx context.Context) (models.ReportSettings, bool) {
	if s.redis == nil {
		return models.ReportSettings{}, false
	}
	payload, err := s.redis.Get(ctx, settingsCacheKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn("settings cache get failed", zap.Error(err))
		}
		return models.ReportSettings{}, false
	}
	var settings models.ReportSettings
	if err := json.Unmarshal(payload, &settings); err != nil {
		s.logger.Warn("settings cache decode failed", zap.Error(err))
		return models.ReportSettings{}, false
	}
	return settings, true
}

func (s *SettingsService) toCache(ctx context.Context, settings models.ReportSettings) {
	if s.redis == nil {
		return
	}
	payload, err := json.Marshal(settings)
	if err != nil {
		s.logger.Warn("settings cache encode failed", zap.Error(err))
		return
	}
	if err := s.redis.Set(ctx, settingsCacheKey, payload, s.ttl).Err(); err != nil {
		s.logger.Warn("settings cache set failed", zap.Error(err))
	}
}

func parseIDList(csv string) []int64 {
	if csv == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	ids := make([]int64, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

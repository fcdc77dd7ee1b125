package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

type SettingsUsecase struct {
	settings repo.SettingsRepository
	audit    repo.AuditLogRepository
	clock    Clock
}

func NewSettingsUsecase(settings repo.SettingsRepository, audit repo.AuditLogRepository, clock Clock) *SettingsUsecase {
	return &SettingsUsecase{settings: settings, audit: audit, clock: clock}
}

func (u *SettingsUsecase) GetAutoCancel(ctx context.Context) (model.AutoCancelSettings, error) {
	s, err := u.settings.AutoCancel(ctx)
	if err != nil {
		return model.AutoCancelSettings{}, storageError(err)
	}
	return s, nil
}

func (u *SettingsUsecase) UpdateAutoCancel(ctx context.Context, actorUserID int64, in model.AutoCancelSettings) (model.AutoCancelSettings, error) {
	if actorUserID <= 0 {
		return model.AutoCancelSettings{}, NewHTTPError(http.StatusUnauthorized, msgUnauthorized)
	}
	if !in.Valid() {
		return model.AutoCancelSettings{}, validationError(
			fmt.Sprintf("minutes must be between %d and %d", model.AutoCancelMinMinutes, model.AutoCancelMaxMinutes))
	}

	before, err := u.settings.AutoCancel(ctx)
	if err != nil {
		return model.AutoCancelSettings{}, storageError(err)
	}
	if err := u.settings.SaveAutoCancel(ctx, in); err != nil {
		return model.AutoCancelSettings{}, storageError(err)
	}

	//監査ログ（UPDATE_SETTINGS）
	b, _ := json.Marshal(before)
	a, _ := json.Marshal(in)
	actor := actorUserID
	if err := u.audit.Create(ctx, model.AuditLog{
		ActorUserID:  &actor,
		ActorType:    model.AuditActorStaff,
		Action:       model.AuditActionUpdateSettings,
		ResourceType: model.AuditResourceSetting,
		BeforeJSON:   string(b),
		AfterJSON:    string(a),
		CreatedAt:    u.clock.Now(),
	}); err != nil {
		return model.AutoCancelSettings{}, storageError(err)
	}
	return in, nil
}

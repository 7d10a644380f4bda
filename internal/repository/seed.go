package repository

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/caresync/internal/crypto"
	"github.com/hitoshi/caresync/internal/localstore"
	"github.com/hitoshi/caresync/internal/model"
)

// 初回起動時にローカルストアへ投入するデモデータセット。
// 文言はプロダクトのデモコンテンツであり、意図的にポルトガル語のまま。

// defaultPasswords はシードユーザーの初期パスワード。
// ハッシュはシード時に生成される。
var defaultPasswords = map[string]string{
	"admin_user": "admin052905",
	"u1":         "123",
	"u2":         "123",
	"u3":         "123",
}

// DefaultUsers はシード用ユーザーを返す。PasswordHashは未設定。
func DefaultUsers() []model.User {
	return []model.User{
		{
			ID:        "admin_user",
			Name:      "Administrador",
			Email:     "admin",
			AvatarURL: "https://api.dicebear.com/7.x/avataaars/svg?seed=Admin&backgroundColor=b6e3f4",
			Role:      model.RoleAdmin,
			Color:     "bg-slate-800 text-white",
		},
		{
			ID:        "u1",
			Name:      "Ana Silva",
			Email:     "ana@example.com",
			AvatarURL: "https://api.dicebear.com/7.x/avataaars/svg?seed=Ana&backgroundColor=c0aede",
			Role:      model.RoleAdmin,
			Color:     "bg-blue-100 text-blue-800",
		},
		{
			ID:        "u2",
			Name:      "Carlos Santos",
			Email:     "carlos@example.com",
			AvatarURL: "https://api.dicebear.com/7.x/avataaars/svg?seed=Carlos&backgroundColor=d1d4f9",
			Role:      model.RoleMember,
			Color:     "bg-emerald-100 text-emerald-800",
		},
		{
			ID:        "u3",
			Name:      "Beatriz Costa",
			Email:     "bia@example.com",
			AvatarURL: "https://api.dicebear.com/7.x/avataaars/svg?seed=Bia&backgroundColor=ffdfbf",
			Role:      model.RoleMember,
			Color:     "bg-purple-100 text-purple-800",
		},
	}
}

// DefaultElderlyProfiles はシード用の被介護者プロフィールを返す。
func DefaultElderlyProfiles() []model.ElderlyProfile {
	return []model.ElderlyProfile{
		{
			ID:         "e1",
			Name:       "Vô Roberto",
			Gender:     model.GenderMale,
			AvatarURL:  "https://api.dicebear.com/7.x/avataaars/svg?seed=Roberto&backgroundColor=b6e3f4",
			Conditions: []string{"Hipertensão", "Diabetes Tipo 2"},
			Notes:      "Precisa de ajuda para caminhar longas distâncias.",
		},
		{
			ID:         "e2",
			Name:       "Vó Maria",
			Gender:     model.GenderFemale,
			AvatarURL:  "https://api.dicebear.com/7.x/avataaars/svg?seed=Maria&backgroundColor=b6e3f4",
			Conditions: []string{"Alzheimer (Leve)"},
			Notes:      "Gosta de ouvir música antiga durante o almoço.",
		},
	}
}

// DefaultTasks はシード用タスクを返す。
// デモとして生きて見えるよう、予定時刻は当日0時からの相対で生成する。
func DefaultTasks(now time.Time) []model.Task {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	at := func(hour int) time.Time { return day.Add(time.Duration(hour) * time.Hour) }

	u1 := "u1"
	u2 := "u2"
	completedAt := at(8)

	return []model.Task{
		{
			ID:          "t1",
			Title:       "Remédio da Pressão",
			Description: "Losartana 50mg - Checar se tomou com água.",
			ElderlyID:   "e1",
			AssignedToID: &u1,
			CreatedBy:   "u1",
			ScheduledAt: at(8),
			CompletedAt: &completedAt,
			Status:      model.TaskStatusCompleted,
			Priority:    model.TaskPriorityHigh,
			Type:        model.TaskTypeMedication,
		},
		{
			ID:          "t2",
			Title:       "Café da Manhã",
			Description: "Evitar muito açúcar. Frutas e aveia.",
			ElderlyID:   "e2",
			CreatedBy:   "u1",
			ScheduledAt: at(9),
			Status:      model.TaskStatusPending,
			Priority:    model.TaskPriorityMedium,
			Type:        model.TaskTypeMeal,
		},
		{
			ID:          "t3",
			Title:       "Banho Assistido",
			Description: "Cuidado com o piso molhado. Usar cadeira de banho.",
			ElderlyID:   "e2",
			CreatedBy:   "u1",
			ScheduledAt: at(10),
			Status:      model.TaskStatusPending,
			Priority:    model.TaskPriorityHigh,
			Type:        model.TaskTypeHygiene,
		},
		{
			ID:          "t4",
			Title:       "Caminhada no Parque",
			Description: "15 minutos apenas se estiver sol.",
			ElderlyID:   "e1",
			AssignedToID: &u2,
			CreatedBy:   "u1",
			ScheduledAt: at(16),
			Status:      model.TaskStatusPending,
			Priority:    model.TaskPriorityLow,
			Type:        model.TaskTypeActivity,
		},
		{
			ID:          "t5",
			Title:       "Insulina",
			Description: "Verificar glicemia antes.",
			ElderlyID:   "e1",
			CreatedBy:   "u1",
			ScheduledAt: at(20),
			Status:      model.TaskStatusPending,
			Priority:    model.TaskPriorityCritical,
			Type:        model.TaskTypeMedication,
		},
	}
}

// SeedLocalStore はローカルストアの初回シードを行う。
// 各コレクションはスロットが存在しない場合のみ投入される。
// 既存のコレクションは空であっても決して上書きしない。
//
// 例外として、管理者アカウントのパスワードが既定値と一致しなくなっている場合は
// 既定値に戻す（開発用の復旧措置。元実装から引き継いだ挙動）。
func SeedLocalStore(store *localstore.Store, now time.Time) error {
	users := DefaultUsers()
	for i := range users {
		hash, err := crypto.HashPassword(defaultPasswords[users[i].ID])
		if err != nil {
			return fmt.Errorf("failed to hash seed password: %w", err)
		}
		users[i].PasswordHash = hash
	}

	seeded, err := putIfAbsentJSON(store, localstore.KeyUsers, users)
	if err != nil {
		return err
	}
	if seeded {
		slog.Info("seeded local users collection", slog.Int("count", len(users)))
	} else {
		if err := resyncAdminPassword(store); err != nil {
			return err
		}
	}

	if seeded, err = putIfAbsentJSON(store, localstore.KeyElderly, DefaultElderlyProfiles()); err != nil {
		return err
	} else if seeded {
		slog.Info("seeded local elderly collection")
	}

	if seeded, err = putIfAbsentJSON(store, localstore.KeyTasks, DefaultTasks(now)); err != nil {
		return err
	} else if seeded {
		slog.Info("seeded local tasks collection")
	}

	return nil
}

// putIfAbsentJSON は値をJSONにして、キーが存在しない場合のみ書き込む。
func putIfAbsentJSON(store *localstore.Store, key string, value any) (bool, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return false, fmt.Errorf("failed to marshal seed data for %s: %w", key, err)
	}
	seeded, err := store.PutIfAbsent(key, raw)
	if err != nil {
		return false, fmt.Errorf("failed to seed %s: %w", key, err)
	}
	return seeded, nil
}

// resyncAdminPassword は管理者のパスワードハッシュが既定パスワードを
// 検証できなくなっている場合に、既定値で再ハッシュして書き戻す。
func resyncAdminPassword(store *localstore.Store) error {
	return store.Update(localstore.KeyUsers, func(current []byte) ([]byte, error) {
		if current == nil {
			return nil, nil
		}
		var users []model.User
		if err := json.Unmarshal(current, &users); err != nil {
			return nil, nil
		}

		for i := range users {
			if users[i].ID != "admin_user" {
				continue
			}
			ok, err := crypto.VerifyPassword(defaultPasswords["admin_user"], users[i].PasswordHash)
			if err == nil && ok {
				return nil, nil
			}

			hash, err := crypto.HashPassword(defaultPasswords["admin_user"])
			if err != nil {
				return nil, err
			}
			users[i].PasswordHash = hash
			slog.Info("admin password resynced to default")
			return json.Marshal(users)
		}
		return nil, nil
	})
}

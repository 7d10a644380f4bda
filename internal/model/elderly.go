package model

// Gender は被介護者の性別を表す。
type Gender string

const (
	GenderMale   Gender = "MALE"
	GenderFemale Gender = "FEMALE"
	GenderOther  Gender = "OTHER"
)

// ElderlyProfile は被介護者のプロフィールを表す。
// Conditionsは既往症ラベルの順序付きリスト。Notesは自由記述のメモ。
type ElderlyProfile struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Gender     Gender   `json:"gender"`
	AvatarURL  string   `json:"avatarUrl"`
	Conditions []string `json:"conditions"`
	Notes      string   `json:"notes"`
}

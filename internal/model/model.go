package model

// All 需要自动建表的模型
func All() []any {
	return []any{
		&Profile{},
		&Member{},
		&Payment{},
		&ActivityType{},
		&Activity{},
		&ActivityParticipant{},
		&WhatsAppGroup{},
		&MemberGroup{},
		&UMUnit{},
		&ValueListItem{},
		&AuditLog{},
	}
}

package pkg

import "Member_Registry/internal/model"

type Action string

const (
	ActionView     Action = "view"
	ActionEdit     Action = "edit"
	ActionDelete   Action = "delete"
	ActionSettings Action = "settings"
)

// Can 角色权限：所有人可看，admin/editor 可编辑，只有 admin 可删除和改设置
func Can(role string, action Action) bool {
	switch action {
	case ActionView:
		return model.ValidRole(role)
	case ActionEdit:
		return role == model.RoleAdmin || role == model.RoleEditor
	case ActionDelete, ActionSettings:
		return role == model.RoleAdmin
	}
	return false
}

package appwrite

import "fmt"

// Permission strings have the form action("role"). They are built here and
// otherwise treated as opaque by callers.

func permission(action, role string) string {
	return fmt.Sprintf("%s(%q)", action, role)
}

func Read(role string) string   { return permission("read", role) }
func Write(role string) string  { return permission("write", role) }
func Create(role string) string { return permission("create", role) }
func Update(role string) string { return permission("update", role) }
func Delete(role string) string { return permission("delete", role) }

// Any grants to every visitor, signed in or not.
func Any() string { return "any" }

func Guests() string { return "guests" }

// Users grants to all signed-in users, optionally narrowed by status
// ("verified", "unverified").
func Users(status ...string) string {
	if len(status) > 0 && status[0] != "" {
		return "users/" + status[0]
	}
	return "users"
}

func User(id string, status ...string) string {
	if len(status) > 0 && status[0] != "" {
		return fmt.Sprintf("user:%s/%s", id, status[0])
	}
	return "user:" + id
}

// Team grants to every member of a team, or only to members holding the
// given team role.
func Team(id string, role ...string) string {
	if len(role) > 0 && role[0] != "" {
		return fmt.Sprintf("team:%s/%s", id, role[0])
	}
	return "team:" + id
}

func Member(id string) string { return "member:" + id }

func Label(name string) string { return "label:" + name }

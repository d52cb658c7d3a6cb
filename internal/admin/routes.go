package admin

import (
	"github.com/gorilla/mux"
)

func Attach(r *mux.Router, d Dependencies) {
	h := &Handler{d: d}
	sub := r.PathPrefix("/api/v1").Subrouter()

	// организации
	sub.HandleFunc("/organizations", h.OrgCreate).Methods("POST")
	sub.HandleFunc("/organizations/tree", h.OrgTree).Methods("GET")
	sub.HandleFunc("/organizations/{id:[0-9]+}", h.OrgGet).Methods("GET")
	sub.HandleFunc("/organizations/{id:[0-9]+}", h.OrgDelete).Methods("DELETE")
	sub.HandleFunc("/organizations/{id:[0-9]+}/delete", h.OrgDeleteSelf).Methods("POST")
	sub.HandleFunc("/organizations/{id:[0-9]+}/restore", h.OrgRestore).Methods("POST")
	sub.HandleFunc("/organizations/{id:[0-9]+}/parent", h.OrgSetParent).Methods("PATCH")
	sub.HandleFunc("/organizations/{id:[0-9]+}/impact", h.OrgImpact).Methods("GET")
	sub.HandleFunc("/organizations/{id:[0-9]+}/audit", h.OrgAudit).Methods("GET")

	// участники
	sub.HandleFunc("/organizations/{id:[0-9]+}/members", h.MemberList).Methods("GET")
	sub.HandleFunc("/organizations/{id:[0-9]+}/members/{mid:[0-9]+}/role", h.MemberChangeRole).Methods("PATCH")
	sub.HandleFunc("/organizations/{id:[0-9]+}/members/{mid:[0-9]+}", h.MemberRemove).Methods("DELETE")
	sub.HandleFunc("/organizations/{id:[0-9]+}/members/{mid:[0-9]+}/permissions", h.MemberPermissions).Methods("GET")

	// приглашения
	sub.HandleFunc("/organizations/{id:[0-9]+}/invitations", h.InvitationCreate).Methods("POST")
	sub.HandleFunc("/invitations/{token}/accept", h.InvitationAccept).Methods("POST")
	sub.HandleFunc("/invitations/{token}", h.InvitationRevoke).Methods("DELETE")

	// пользователи (платформа)
	sub.HandleFunc("/users", h.UserCreate).Methods("POST")
	sub.HandleFunc("/users/{id:[0-9]+}", h.UserDelete).Methods("DELETE")
	sub.HandleFunc("/users/{id:[0-9]+}/restore", h.UserRestore).Methods("POST")
	sub.HandleFunc("/users/{id:[0-9]+}/ban", h.UserBan).Methods("POST")
	sub.HandleFunc("/users/{id:[0-9]+}/unban", h.UserUnban).Methods("POST")
}

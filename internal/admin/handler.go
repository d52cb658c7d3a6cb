package admin

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"atrium/internal/hierarchy"
	"atrium/internal/lifecycle"
	"atrium/internal/models"
)

// Аутентификация — вне ядра; актор приходит готовым заголовком
// от вышестоящего слоя (gateway).
const headerActorID = "X-Actor-Id"

func actorID(r *http.Request) (uint, bool) {
	n, err := strconv.ParseUint(r.Header.Get(headerActorID), 10, 32)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}

func pathID(r *http.Request, key string) uint {
	n, _ := strconv.ParseUint(mux.Vars(r)[key], 10, 32)
	return uint(n)
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		models.WriteProblem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body", nil)
		return false
	}
	return true
}

func requireActor(w http.ResponseWriter, r *http.Request) (uint, bool) {
	id, ok := actorID(r)
	if !ok {
		models.WriteProblem(w, http.StatusBadRequest, "Bad Request", "missing or invalid "+headerActorID+" header", nil)
	}
	return id, ok
}

// ---------- организации ----------

func (h *Handler) OrgCreate(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req struct {
		Name     string `json:"name"`
		Slug     string `json:"slug"`
		ParentID *uint  `json:"parent_organization_id"`
	}
	if !decode(w, r, &req) {
		return
	}
	org, err := h.d.Engine.CreateOrganization(r.Context(), actor, lifecycle.CreateOrgInput{
		Name: req.Name, Slug: req.Slug, ParentID: req.ParentID,
	})
	if err != nil {
		writeFault(w, err)
		return
	}
	models.WriteJSON(w, http.StatusCreated, org)
}

func (h *Handler) OrgGet(w http.ResponseWriter, r *http.Request) {
	org, err := h.d.Orgs.GetByID(r.Context(), pathID(r, "id"))
	if err != nil {
		writeFault(w, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, org)
}

// OrgTree — лес активных организаций; orphan-узлы видимы как корни.
func (h *Handler) OrgTree(w http.ResponseWriter, r *http.Request) {
	orgs, err := h.d.Orgs.ListActive(r.Context())
	if err != nil {
		writeFault(w, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, hierarchy.BuildTree(orgs))
}

func (h *Handler) OrgDelete(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	if err := h.d.Engine.DeleteOrganization(r.Context(), actor, pathID(r, "id")); err != nil {
		writeFault(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) OrgDeleteSelf(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req struct {
		ConfirmName string `json:"confirm_name"`
	}
	if !decode(w, r, &req) {
		return
	}
	if err := h.d.Engine.DeleteOrganizationWithConfirmation(r.Context(), actor, pathID(r, "id"), req.ConfirmName); err != nil {
		writeFault(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) OrgRestore(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	if err := h.d.Engine.RestoreOrganization(r.Context(), actor, pathID(r, "id")); err != nil {
		writeFault(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) OrgSetParent(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req struct {
		ParentID *uint `json:"parent_organization_id"`
	}
	if !decode(w, r, &req) {
		return
	}
	org, err := h.d.Engine.SetOrganizationParent(r.Context(), actor, pathID(r, "id"), req.ParentID)
	if err != nil {
		writeFault(w, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, org)
}

func (h *Handler) OrgImpact(w http.ResponseWriter, r *http.Request) {
	imp, err := h.d.Impact.EstimateOrgDeletionImpact(r.Context(), pathID(r, "id"))
	if err != nil {
		writeFault(w, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, imp)
}

func (h *Handler) OrgAudit(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	rows, err := h.d.Audit.ListByOrg(r.Context(), pathID(r, "id"), limit)
	if err != nil {
		writeFault(w, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, rows)
}

// ---------- участники ----------

func (h *Handler) MemberList(w http.ResponseWriter, r *http.Request) {
	rows, err := h.d.Members.ListByOrg(r.Context(), pathID(r, "id"))
	if err != nil {
		writeFault(w, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, rows)
}

func (h *Handler) MemberChangeRole(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req struct {
		RoleID uint `json:"role_id"`
	}
	if !decode(w, r, &req) {
		return
	}
	m, err := h.d.Engine.ChangeMemberRole(r.Context(), actor, pathID(r, "id"), pathID(r, "mid"), req.RoleID)
	if err != nil {
		writeFault(w, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, m)
}

func (h *Handler) MemberRemove(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	if err := h.d.Engine.RemoveMember(r.Context(), actor, pathID(r, "id"), pathID(r, "mid")); err != nil {
		writeFault(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) MemberPermissions(w http.ResponseWriter, r *http.Request) {
	perms, err := h.d.Resolver.ResolveEffectivePermissions(r.Context(), pathID(r, "id"), pathID(r, "mid"))
	if err != nil {
		writeFault(w, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, map[string]any{"permissions": perms})
}

// ---------- приглашения ----------

func (h *Handler) InvitationCreate(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req struct {
		Email string `json:"email"`
		Role  string `json:"role"`
	}
	if !decode(w, r, &req) {
		return
	}
	token, secret, err := h.d.Invites.Issue(r.Context(), actor, pathID(r, "id"), req.Email, req.Role)
	if err != nil {
		writeFault(w, err)
		return
	}
	// секрет отдаётся ровно один раз
	models.WriteJSON(w, http.StatusCreated, map[string]string{"token": token, "secret": secret})
}

func (h *Handler) InvitationAccept(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Secret string `json:"secret"`
		UserID uint   `json:"user_id"`
	}
	if !decode(w, r, &req) {
		return
	}
	m, err := h.d.Invites.Accept(r.Context(), mux.Vars(r)["token"], req.Secret, req.UserID)
	if err != nil {
		writeFault(w, err)
		return
	}
	models.WriteJSON(w, http.StatusCreated, m)
}

func (h *Handler) InvitationRevoke(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	if err := h.d.Invites.Revoke(r.Context(), actor, mux.Vars(r)["token"]); err != nil {
		writeFault(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---------- пользователи ----------

func (h *Handler) UserCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name  string `json:"name"`
		Email string `json:"email"`
		Role  string `json:"role"`
	}
	if !decode(w, r, &req) {
		return
	}
	role := req.Role
	if role == "" {
		role = models.PlatformRoleUser
	}
	if role != models.PlatformRoleUser && role != models.PlatformRoleSuperadmin {
		models.WriteProblem(w, http.StatusBadRequest, "Bad Request", "role must be user or superadmin", nil)
		return
	}
	u := &models.User{Name: req.Name, Email: req.Email, Role: role}
	if err := h.d.Users.Create(r.Context(), u); err != nil {
		writeFault(w, err)
		return
	}
	models.WriteJSON(w, http.StatusCreated, u)
}

func (h *Handler) UserDelete(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	if err := h.d.Engine.DeleteUser(r.Context(), actor, pathID(r, "id")); err != nil {
		writeFault(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) UserRestore(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	if err := h.d.Engine.RestoreUser(r.Context(), actor, pathID(r, "id")); err != nil {
		writeFault(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) UserBan(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req struct {
		Reason    string     `json:"reason"`
		ExpiresAt *time.Time `json:"expires_at"`
	}
	if !decode(w, r, &req) {
		return
	}
	if err := h.d.Engine.BanUser(r.Context(), actor, pathID(r, "id"), req.Reason, req.ExpiresAt); err != nil {
		writeFault(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) UserUnban(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	if err := h.d.Engine.UnbanUser(r.Context(), actor, pathID(r, "id")); err != nil {
		writeFault(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

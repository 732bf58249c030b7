package acceptance

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/ztas-io/analytics-api/internal/dto"
)

func (s *Suite) TestAPIKeys_Lifecycle() {
	token := s.registerUser("keys@example.com")

	// Create: the plaintext secret appears exactly once.
	createResp := s.postJSON("/api/keys", token, dto.CreateAPIKeyRequest{
		Name:        "CI deploys",
		Permissions: []string{"write", "made-up"},
	})
	s.Require().Equal(http.StatusCreated, createResp.StatusCode)

	var created dto.APIKeyResponse
	s.Require().NoError(json.NewDecoder(createResp.Body).Decode(&created))
	createResp.Body.Close()

	s.True(strings.HasPrefix(created.Secret, "zta_"))
	s.Equal(created.Secret[:len(created.Prefix)], created.Prefix)
	s.Equal([]string{"write"}, created.Permissions)
	s.NotEmpty(created.Message)

	// List: no secret, only the prefix.
	listResp := s.doJSON(http.MethodGet, "/api/keys", token, nil)
	s.Require().Equal(http.StatusOK, listResp.StatusCode)

	var list struct {
		Keys []struct {
			ID     string `json:"id"`
			Name   string `json:"name"`
			Prefix string `json:"prefix"`
		} `json:"keys"`
	}
	s.Require().NoError(json.NewDecoder(listResp.Body).Decode(&list))
	listResp.Body.Close()

	s.Require().Len(list.Keys, 1)
	s.Equal("CI deploys", list.Keys[0].Name)
	s.Equal(created.Prefix, list.Keys[0].Prefix)

	// Rename.
	renameResp := s.doJSON(http.MethodPatch, "/api/keys", token, dto.RenameAPIKeyRequest{
		KeyID: created.ID,
		Name:  "Deploy bot",
	})
	s.Require().Equal(http.StatusOK, renameResp.StatusCode)

	var renamed struct {
		Name string `json:"name"`
	}
	s.Require().NoError(json.NewDecoder(renameResp.Body).Decode(&renamed))
	renameResp.Body.Close()
	s.Equal("Deploy bot", renamed.Name)

	// Revoke.
	revokeResp := s.doJSON(http.MethodDelete, "/api/keys?keyId="+created.ID, token, nil)
	s.Equal(http.StatusOK, revokeResp.StatusCode)
	revokeResp.Body.Close()

	afterResp := s.doJSON(http.MethodGet, "/api/keys", token, nil)
	s.Require().NoError(json.NewDecoder(afterResp.Body).Decode(&list))
	afterResp.Body.Close()
	s.Empty(list.Keys)
}

func (s *Suite) TestAPIKeys_ScopedToOwner() {
	ownerToken := s.registerUser("keyowner@example.com")

	createResp := s.postJSON("/api/keys", ownerToken, dto.CreateAPIKeyRequest{Name: "mine"})
	s.Require().Equal(http.StatusCreated, createResp.StatusCode)

	var created dto.APIKeyResponse
	s.Require().NoError(json.NewDecoder(createResp.Body).Decode(&created))
	createResp.Body.Close()

	otherToken := s.registerUser("keythief@example.com")

	renameResp := s.doJSON(http.MethodPatch, "/api/keys", otherToken, dto.RenameAPIKeyRequest{
		KeyID: created.ID,
		Name:  "stolen",
	})
	s.Equal(http.StatusNotFound, renameResp.StatusCode)
	renameResp.Body.Close()

	revokeResp := s.doJSON(http.MethodDelete, "/api/keys?keyId="+created.ID, otherToken, nil)
	s.Equal(http.StatusNotFound, revokeResp.StatusCode)
	revokeResp.Body.Close()
}

func (s *Suite) TestAPIKeys_RequireAuth() {
	resp := s.doJSON(http.MethodGet, "/api/keys", "", nil)
	defer resp.Body.Close()
	s.Equal(http.StatusUnauthorized, resp.StatusCode)
}

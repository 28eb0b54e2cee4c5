// +build integration

package test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"os"

	"github.com/nexusverse/core/common"
)

func apiBaseURL() string {
	if url := os.Getenv("NEXUS_API_URL"); url != "" {
		return url
	}
	return "http://localhost:8080"
}

func apiToken() string {
	return os.Getenv("NEXUS_API_TOKEN")
}

func addressFactory() string {
	return "0x" + common.SHA256(common.RandomString(32))[0:40]
}

func hashFactory() string {
	return "0x" + common.SHA256(common.RandomString(32))
}

// apiRequest issues an authorized JSON request against the running API and
// unmarshals any response body into a generic map
func apiRequest(method, path string, params map[string]interface{}) (int, map[string]interface{}, error) {
	var body *bytes.Buffer
	if params != nil {
		raw, err := json.Marshal(params)
		if err != nil {
			return 0, nil, err
		}
		body = bytes.NewBuffer(raw)
	} else {
		body = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, fmt.Sprintf("%s%s", apiBaseURL(), path), body)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("content-type", "application/json")
	req.Header.Set("authorization", fmt.Sprintf("bearer %s", apiToken()))

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	raw, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, err
	}

	if len(raw) == 0 {
		return resp.StatusCode, nil, nil
	}

	parsed := map[string]interface{}{}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return resp.StatusCode, nil, nil
	}
	return resp.StatusCode, parsed, nil
}

// anonymousRequest issues a request without an authorization header
func anonymousRequest(method, path string) (int, error) {
	req, err := http.NewRequest(method, fmt.Sprintf("%s%s", apiBaseURL(), path), nil)
	if err != nil {
		return 0, err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	return resp.StatusCode, nil
}

func ownerAddress() string {
	return common.RequireOwnerAddress()
}

// mintTokens credits amount base units to the given address as the owner
func mintTokens(address, amount string) (int, error) {
	status, _, err := apiRequest("POST", "/api/v1/ledger/mint", map[string]interface{}{
		"address": ownerAddress(),
		"to":      address,
		"amount":  amount,
	})
	return status, err
}

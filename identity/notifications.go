package identity

import (
	"encoding/json"
	"fmt"

	natsutil "github.com/kthomas/go-natsutil"
	"github.com/nexusverse/core/common"
)

const notificationRegistered = "registered"
const notificationVerified = "verified"
const notificationRejected = "rejected"
const notificationRevoked = "revoked"
const notificationMetadataUpdated = "metadata.updated"
const notificationVerifierAuthorized = "verifier.authorized"
const notificationVerifierRevoked = "verifier.revoked"

// dispatchNotification broadcasts a registry event to qualified subjects,
// e.g., the off-chain listener marking user profiles as identity-verified;
// fire-and-forget, never awaited
func dispatchNotification(address, event string, params map[string]interface{}) {
	if event == "" {
		common.Log.Warningf("failed to dispatch registry event notification for address %s; no event", address)
		return
	}

	subject := fmt.Sprintf("%s.%s", notificationsSubjectPrefix(address), event)
	payload, _ := json.Marshal(params)

	_, err := natsutil.NatsJetstreamPublish(subject, payload)
	if err != nil {
		common.Log.Warningf("failed to dispatch %s notification for address %s; %s", event, address, err.Error())
	}
}

// notificationsSubjectPrefix returns the namespaced pub/sub subject prefix
// for registry events concerning the given address
func notificationsSubjectPrefix(address string) string {
	return fmt.Sprintf("nexus.identity.notification.%s", address)
}

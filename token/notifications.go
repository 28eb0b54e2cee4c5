package token

import (
	"encoding/json"
	"fmt"

	natsutil "github.com/kthomas/go-natsutil"
	"github.com/nexusverse/core/common"
)

const notificationTransferred = "transferred"
const notificationMinted = "minted"
const notificationBurned = "burned"
const notificationStaked = "staked"
const notificationUnstaked = "unstaked"
const notificationRewardsClaimed = "rewards.claimed"
const notificationPaused = "paused"
const notificationUnpaused = "unpaused"
const notificationRateUpdated = "rate.updated"

// dispatchNotification broadcasts a ledger event to qualified subjects; this
// is fire-and-forget — the committed operation never depends on delivery
func dispatchNotification(address, event string, params map[string]interface{}) {
	if event == "" {
		common.Log.Warningf("failed to dispatch ledger event notification for address %s; no event", address)
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
// for ledger events concerning the given address
func notificationsSubjectPrefix(address string) string {
	return fmt.Sprintf("nexus.token.notification.%s", address)
}

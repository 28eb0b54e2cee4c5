/*
 * Copyright 2024-2026 NexusVerse Labs
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package token

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	natsutil "github.com/kthomas/go-natsutil"
	"github.com/nats-io/nats.go"
	"github.com/nexusverse/core/common"
)

const defaultNatsStream = "nexus"

const natsMintPendingSubject = "nexus.token.mint.pending"
const natsMintCompleteSubject = "nexus.token.mint.complete"
const natsMintFailedSubject = "nexus.token.mint.failed"
const mintPendingAckWait = time.Minute * 1
const mintPendingMaxInFlight = 64
const mintPendingMaxDeliveries = 5

func init() {
	if !common.ConsumeNATSStreamingSubscriptions {
		common.Log.Debug("token package consumer configured to skip NATS streaming subscription setup")
		return
	}

	natsutil.EstablishSharedNatsConnection(nil)
	natsutil.NatsCreateStream(defaultNatsStream, []string{
		fmt.Sprintf("%s.>", defaultNatsStream),
	})

	var waitGroup sync.WaitGroup

	createNatsMintPendingSubscriptions(&waitGroup)
}

func createNatsMintPendingSubscriptions(wg *sync.WaitGroup) {
	for i := uint64(0); i < natsutil.GetNatsConsumerConcurrency(); i++ {
		natsutil.RequireNatsJetstreamSubscription(wg,
			mintPendingAckWait,
			natsMintPendingSubject,
			natsMintPendingSubject,
			natsMintPendingSubject,
			consumeMintPendingMsg,
			mintPendingAckWait,
			mintPendingMaxInFlight,
			mintPendingMaxDeliveries,
			nil,
		)
	}
}

// consumeMintPendingMsg applies an owner-originated mint grant, e.g., as
// enqueued by the billing pipeline when a purchase settles
func consumeMintPendingMsg(msg *nats.Msg) {
	defer func() {
		if r := recover(); r != nil {
			common.Log.Warningf("recovered during mint grant; %s", r)
			msg.Nak()
		}
	}()

	common.Log.Debugf("consuming %d-byte NATS mint grant message on subject: %s", len(msg.Data), msg.Subject)

	params := map[string]interface{}{}
	err := json.Unmarshal(msg.Data, &params)
	if err != nil {
		common.Log.Warningf("failed to unmarshal mint grant message; %s", err.Error())
		msg.Nak()
		return
	}

	address, addressOk := params["address"].(string)
	rawAmount, amountOk := params["amount"].(string)
	if !addressOk || !amountOk {
		common.Log.Warning("failed to parse address and amount during mint grant message handler")
		msg.Nak()
		return
	}

	amount, err := ParseAmount(rawAmount)
	if err != nil {
		common.Log.Warningf("failed to parse amount during mint grant message handler; %s", err.Error())
		msg.Nak()
		return
	}

	err = Mint(common.OwnerAddress, address, amount)
	if err != nil {
		if errors.Is(err, ErrSupplyCapExceeded) || errors.Is(err, ErrNotOwner) {
			// terminal; redelivery cannot succeed
			common.Log.Warningf("mint grant rejected for address %s; %s", address, err.Error())
			natsutil.NatsJetstreamPublish(natsMintFailedSubject, msg.Data)
			msg.Ack()
			return
		}

		common.Log.Warningf("mint grant failed for address %s; %s", address, err.Error())
		msg.Nak()
		return
	}

	common.Log.Debugf("mint grant of %s applied to address: %s", amount, address)
	natsutil.NatsJetstreamPublish(natsMintCompleteSubject, msg.Data)
	msg.Ack()
}

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

package identity

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

const natsVerificationPendingSubject = "nexus.identity.verification.pending"
const natsVerificationCompleteSubject = "nexus.identity.verification.complete"
const natsVerificationFailedSubject = "nexus.identity.verification.failed"
const verificationPendingAckWait = time.Minute * 1
const verificationPendingMaxInFlight = 64
const verificationPendingMaxDeliveries = 5

func init() {
	if !common.ConsumeNATSStreamingSubscriptions {
		common.Log.Debug("identity package consumer configured to skip NATS streaming subscription setup")
		return
	}

	natsutil.EstablishSharedNatsConnection(nil)
	natsutil.NatsCreateStream(defaultNatsStream, []string{
		fmt.Sprintf("%s.>", defaultNatsStream),
	})

	var waitGroup sync.WaitGroup

	createNatsVerificationPendingSubscriptions(&waitGroup)
}

func createNatsVerificationPendingSubscriptions(wg *sync.WaitGroup) {
	for i := uint64(0); i < natsutil.GetNatsConsumerConcurrency(); i++ {
		natsutil.RequireNatsJetstreamSubscription(wg,
			verificationPendingAckWait,
			natsVerificationPendingSubject,
			natsVerificationPendingSubject,
			natsVerificationPendingSubject,
			consumeVerificationPendingMsg,
			verificationPendingAckWait,
			verificationPendingMaxInFlight,
			verificationPendingMaxDeliveries,
			nil,
		)
	}
}

// consumeVerificationPendingMsg applies a queued verifier decision
func consumeVerificationPendingMsg(msg *nats.Msg) {
	defer func() {
		if r := recover(); r != nil {
			common.Log.Warningf("recovered during identity verification; %s", r)
			msg.Nak()
		}
	}()

	common.Log.Debugf("consuming %d-byte NATS verification message on subject: %s", len(msg.Data), msg.Subject)

	params := map[string]interface{}{}
	err := json.Unmarshal(msg.Data, &params)
	if err != nil {
		common.Log.Warningf("failed to unmarshal verification message; %s", err.Error())
		msg.Nak()
		return
	}

	verifier, verifierOk := params["verifier"].(string)
	address, addressOk := params["address"].(string)
	isValid, isValidOk := params["is_valid"].(bool)
	if !verifierOk || !addressOk || !isValidOk {
		common.Log.Warning("failed to parse verifier, address and outcome during verification message handler")
		msg.Nak()
		return
	}

	reason, _ := params["reason"].(string)

	err = Verify(verifier, address, isValid, reason)
	if err != nil {
		if errors.Is(err, ErrAlreadyVerified) || errors.Is(err, ErrNotAuthorizedVerifier) || errors.Is(err, ErrIdentityNotFound) {
			// terminal; redelivery cannot succeed
			common.Log.Warningf("verification rejected for address %s; %s", address, err.Error())
			natsutil.NatsJetstreamPublish(natsVerificationFailedSubject, msg.Data)
			msg.Ack()
			return
		}

		common.Log.Warningf("verification failed for address %s; %s", address, err.Error())
		msg.Nak()
		return
	}

	common.Log.Debugf("verification outcome %t recorded for address: %s", isValid, address)
	natsutil.NatsJetstreamPublish(natsVerificationCompleteSubject, msg.Data)
	msg.Ack()
}

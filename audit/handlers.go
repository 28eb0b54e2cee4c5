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

package audit

import (
	"github.com/gin-gonic/gin"
	dbconf "github.com/kthomas/go-db-config"
	uuid "github.com/kthomas/go.uuid"
	provide "github.com/provideplatform/provide-go/common"
	util "github.com/provideplatform/provide-go/common/util"
)

// InstallAPI registers the audit trail API handlers with gin
func InstallAPI(r *gin.Engine) {
	r.GET("/api/v1/audit", listStoresHandler)
	r.GET("/api/v1/audit/:id/root", storeRootHandler)
}

func listStoresHandler(c *gin.Context) {
	appID := util.AuthorizedSubjectID(c, "application")
	orgID := util.AuthorizedSubjectID(c, "organization")
	userID := util.AuthorizedSubjectID(c, "user")
	if appID == nil && orgID == nil && userID == nil {
		provide.RenderError("unauthorized", 401, c)
		return
	}

	db := dbconf.DatabaseConnection()
	query := db.Order("stores.created_at ASC")

	var stores []*Store
	provide.Paginate(c, query, &Store{}).Find(&stores)
	provide.Render(stores, 200, c)
}

func storeRootHandler(c *gin.Context) {
	appID := util.AuthorizedSubjectID(c, "application")
	orgID := util.AuthorizedSubjectID(c, "organization")
	userID := util.AuthorizedSubjectID(c, "user")
	if appID == nil && orgID == nil && userID == nil {
		provide.RenderError("unauthorized", 401, c)
		return
	}

	storeID, err := uuid.FromString(c.Param("id"))
	if err != nil {
		provide.RenderError("bad request", 400, c)
		return
	}

	store := Find(storeID)
	if store == nil {
		provide.RenderError("audit store not found", 404, c)
		return
	}

	root, err := store.Root()
	if err != nil {
		provide.RenderError(err.Error(), 404, c)
		return
	}

	height, err := store.Height()
	if err != nil {
		provide.RenderError(err.Error(), 500, c)
		return
	}

	provide.Render(map[string]interface{}{
		"root":   root,
		"height": height,
	}, 200, c)
}

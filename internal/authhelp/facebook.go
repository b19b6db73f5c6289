// SPDX-License-Identifier: AGPL-3.0-only
package authhelp

import (
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/facebook"
)

// FacebookScopes covers page and Instagram insights reads.
var FacebookScopes = []string{
	"public_profile",
	"email",
	"pages_show_list",
	"pages_read_engagement",
	"read_insights",
	"instagram_basic",
	"instagram_manage_insights",
}

func GenerateFacebookConfig(appID, appSecret, callbackURL string) *oauth2.Config {
	facebookOAuthConfig := &oauth2.Config{
		ClientID:     appID,
		ClientSecret: appSecret,
		RedirectURL:  callbackURL,
		Scopes:       FacebookScopes,
		Endpoint:     facebook.Endpoint,
	}
	return facebookOAuthConfig
}

/**
  Steam Library For Go
  Copyright (C) 2016 Ahmed Samy <f.fallen45@gmail.com>
  Copyright (C) 2016 Mark Samman <mark.samman@gmail.com>

  This library is free software; you can redistribute it and/or
  modify it under the terms of the GNU Lesser General Public
  License as published by the Free Software Foundation; either
  version 2.1 of the License, or (at your option) any later version.

  This library is distributed in the hope that it will be useful,
  but WITHOUT ANY WARRANTY; without even the implied warranty of
  MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
  Lesser General Public License for more details.

  You should have received a copy of the GNU Lesser General Public
  License along with this library; if not, write to the Free Software
  Foundation, Inc., 51 Franklin St, Fifth Floor, Boston, MA  02110-1301  USA
*/
package steamtrade

import (
	"net/http"

	"github.com/dgraph-io/ristretto"
	"github.com/sirupsen/logrus"
)

const communityBaseURL = "https://steamcommunity.com"

// Session holds everything a community request needs: the HTTP client,
// the authentication cookie once known, and the price cache. A Session
// is not safe for concurrent use; parallel trade flows must each use
// their own Session.
type Session struct {
	client     *http.Client
	log        logrus.FieldLogger
	community  string
	account    *Account
	authCookie string
	deviceID   string
	prices     *ristretto.Cache
}

// NewSession returns an unauthenticated session. The caller owns the
// client and should set a timeout on it; pass nil for a default client.
func NewSession(client *http.Client) *Session {
	if client == nil {
		client = &http.Client{}
	}

	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e4,
		MaxCost:     1 << 20,
		BufferItems: 64,
	})
	if err != nil {
		/* NewCache only rejects invalid configs, and ours is static.  */
		panic(err)
	}

	return &Session{
		client:    client,
		log:       logrus.StandardLogger(),
		community: communityBaseURL,
		prices:    cache,
	}
}

// NewSessionFromCookie returns a session that skips the login handshake
// and authenticates every request with a previously obtained cookie.
func NewSessionFromCookie(client *http.Client, authCookie string) *Session {
	session := NewSession(client)
	session.authCookie = authCookie
	return session
}

// SetLogger replaces the session logger. The library only logs at
// Debug level.
func (session *Session) SetLogger(log logrus.FieldLogger) {
	if log != nil {
		session.log = log
	}
}

// Account returns the identity established by Login, nil before a
// successful login.
func (session *Session) Account() *Account {
	return session.account
}

// AuthCookie returns the cookie used to authenticate requests. Empty
// for anonymous sessions.
func (session *Session) AuthCookie() string {
	return session.authCookie
}

// DeviceID returns the mobile device identifier generated at login,
// empty before login.
func (session *Session) DeviceID() string {
	return session.deviceID
}

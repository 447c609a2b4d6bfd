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
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

const loginFriendlyName = "steamtrade-bot"

type rsaKeyResponse struct {
	Success      bool   `json:"success"`
	PublicKeyMod string `json:"publickey_mod"`
	PublicKeyExp string `json:"publickey_exp"`
	Timestamp    string `json:"timestamp"`
	TokenGID     string `json:"token_gid"`
}

type transferParameters struct {
	SteamID       string `json:"steamid"`
	TokenSecure   string `json:"token_secure"`
	Auth          string `json:"auth"`
	RememberLogin bool   `json:"remember_login"`
	WebCookie     string `json:"webcookie"`
}

type loginResponse struct {
	Success           bool               `json:"success"`
	RequiresTwoFactor bool               `json:"requires_twofactor"`
	LoginComplete     bool               `json:"login_complete"`
	Message           string             `json:"message"`
	TransferURLs      []string           `json:"transfer_urls"`
	TransferParams    transferParameters `json:"transfer_parameters"`
}

// Account is the identity established by a successful login. It is
// never mutated afterwards; a fresh login replaces it wholesale.
type Account struct {
	SteamID     SteamID
	LoggedIn    bool
	tokenSecure string
	auth        string
	webCookie   string
}

func (session *Session) fetchRSAKey(username string) (*rsaKeyResponse, error) {
	req, err := http.NewRequest(http.MethodGet, session.community+"/login/getrsakey/?username="+url.QueryEscape(username), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Add("Accept", "application/json")

	resp, err := session.client.Do(req)
	if resp != nil {
		defer resp.Body.Close()
	}

	if err != nil {
		return nil, fmt.Errorf("fetch rsa key: %w", err)
	}

	if err := classifyStatus(resp); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("fetch rsa key: %w", err)
	}

	var key rsaKeyResponse
	if err := json.Unmarshal(body, &key); err != nil {
		return nil, &ProtocolError{Op: "fetch rsa key", Body: body, Err: err}
	}

	if !key.Success {
		return nil, &ProtocolError{Op: "fetch rsa key", Body: body, Err: errors.New("server reported failure")}
	}

	return &key, nil
}

// encryptPassword encrypts the password with the server-issued public
// key, PKCS#1 v1.5 padded, and returns it base64-encoded. The modulus
// and exponent are hex-encoded big-endian unsigned integers.
func encryptPassword(key *rsaKeyResponse, password string) (string, error) {
	n := &big.Int{}
	if _, ok := n.SetString(key.PublicKeyMod, 16); !ok {
		return "", errors.New("encrypt password: bad public key modulus")
	}

	exp, err := strconv.ParseInt(key.PublicKeyExp, 16, 32)
	if err != nil {
		return "", fmt.Errorf("encrypt password: bad public key exponent: %w", err)
	}

	pub := &rsa.PublicKey{N: n, E: int(exp)}
	ciphertext, err := rsa.EncryptPKCS1v15(rand.Reader, pub, []byte(password))
	if err != nil {
		return "", fmt.Errorf("encrypt password: %w", err)
	}

	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// Login performs the credential handshake: fetch the RSA key, encrypt
// the password, derive a one-time code when a shared secret is given,
// submit the login form and record the resulting identity. The session
// authenticates all subsequent requests with the obtained cookie.
func (session *Session) Login(username, password, sharedSecret string) error {
	key, err := session.fetchRSAKey(username)
	if err != nil {
		return err
	}

	encrypted, err := encryptPassword(key, password)
	if err != nil {
		return err
	}

	var twoFactorCode string
	if sharedSecret != "" {
		if twoFactorCode, err = GenerateTwoFactorCode(sharedSecret); err != nil {
			return err
		}
	}

	form := url.Values{
		"username":          {username},
		"password":          {encrypted},
		"twofactorcode":     {twoFactorCode},
		"rsatimestamp":      {key.Timestamp},
		"remember_login":    {"false"},
		"emailauth":         {""},
		"emailsteamid":      {""},
		"loginfriendlyname": {loginFriendlyName},
		"captcha_text":      {""},
		"captchagid":        {""},
	}

	req, err := http.NewRequest(http.MethodPost, session.community+"/login/dologin/", strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Add("Accept", "application/json")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	session.log.WithField("username", username).Debug("submitting login")

	resp, err := session.client.Do(req)
	if resp != nil {
		defer resp.Body.Close()
	}

	if err != nil {
		return fmt.Errorf("login: %w", err)
	}

	if err := classifyStatus(resp); err != nil {
		return err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}

	// The login schema is not contractually stable; unknown fields are
	// ignored on purpose.
	var login loginResponse
	if err := json.Unmarshal(body, &login); err != nil {
		return &ProtocolError{Op: "login", Body: body, Err: err}
	}

	if !login.Success {
		if login.RequiresTwoFactor {
			return ErrNeedTwoFactor
		}
		return fmt.Errorf("%w: %s", ErrLoginFailed, login.Message)
	}

	if !login.LoginComplete {
		return ErrLoginFailed
	}

	sid, err := ParseSteamID(login.TransferParams.SteamID)
	if err != nil {
		return &ProtocolError{Op: "login", Body: body, Err: err}
	}

	session.account = &Account{
		SteamID:     sid,
		LoggedIn:    login.LoginComplete,
		tokenSecure: login.TransferParams.TokenSecure,
		auth:        login.TransferParams.Auth,
		webCookie:   login.TransferParams.WebCookie,
	}
	session.authCookie = fmt.Sprintf(
		"steamLogin=%s%%7C%%7C%s; steamLoginSecure=%s%%7C%%7C%s; ",
		login.TransferParams.SteamID, login.TransferParams.Auth,
		login.TransferParams.SteamID, login.TransferParams.TokenSecure,
	)
	session.deviceID = "android:" + uuid.New().String()

	session.log.WithField("steamid", sid.ToString()).Debug("login complete")
	return nil
}

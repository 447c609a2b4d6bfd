/*
   Steam Library For Go
   Copyright (C) 2016 Ahmed Samy <f.fallen45@gmail.com>

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

import "strconv"

type SteamID struct {
	Bits uint64
}

const (
	UniverseInvalid = iota
	UniversePublic
	UniverseBeta
	UniverseInternal
	UniverseDev
)

const (
	AccountTypeInvalid = iota
	AccountTypeIndividual
	AccountTypeMultiSeat
	AccountTypeGameServer
	AccountTypeAnonymousGameServer
	AccountTypePending
	AccountTypeContentServer
	AccountTypeClan
	AccountTypeChat
	AccountTypeP2PSuperSeeder
	AccountTypeAnonymous
)

const (
	AccountInstanceAll = iota
	AccountInstanceDesktop
	AccountInstanceConsole
	AccountInstanceWeb
)

// partnerIDOffset is the 64-bit id of account 0 in the public universe
// for an individual desktop account. Adding a trade URL's partner
// fragment to it yields the full SteamID 64.
const partnerIDOffset = 76561197960265728

func (sid *SteamID) Parse(accid uint32, instance uint32, accountType uint32, universe uint8) {
	sid.Bits = uint64(accid)
	sid.Bits |= uint64(instance&0xFFFFF) << 32
	sid.Bits |= uint64(accountType) << 52
	sid.Bits |= uint64(universe) << 56
}

// SteamIDFromPartner converts the compact partner fragment found in
// trade offer URLs into a full SteamID 64.
func SteamIDFromPartner(fragment uint32) SteamID {
	var sid SteamID
	sid.Parse(fragment, AccountInstanceDesktop, AccountTypeIndividual, UniversePublic)
	return sid
}

// ParseSteamID parses a decimal SteamID 64 string.
func ParseSteamID(s string) (SteamID, error) {
	bits, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return SteamID{}, err
	}
	return SteamID{Bits: bits}, nil
}

func (sid SteamID) GetAccountID() uint32 {
	return uint32(sid.Bits & 0xFFFFFFFF)
}

// PartnerID returns the compact fragment used in trade offer URLs.
func (sid SteamID) PartnerID() uint32 {
	return sid.GetAccountID()
}

func (sid SteamID) GetAccountInstance() uint32 {
	return uint32((sid.Bits >> 32) & 0xFFFFF)
}

func (sid SteamID) GetAccountType() uint32 {
	return uint32((sid.Bits >> 52) & 0xF)
}

func (sid SteamID) GetAccountUniverse() uint32 {
	return uint32((sid.Bits >> 56) & 0xFF)
}

func (sid SteamID) ToString() string {
	return strconv.FormatUint(sid.Bits, 10)
}

// Copyright 2021-2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package colors

var Red = "\033[31;1m"
var Yellow = "\033[33;1m"
var Mint = "\033[38;5;48;1m"

var Clear = "\033[0;0m"

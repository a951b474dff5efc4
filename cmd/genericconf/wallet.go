// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package genericconf

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/log"
	flag "github.com/spf13/pflag"
)

const PASSWORD_NOT_SET = "PASSWORD_NOT_SET"

var ErrNoWallet = errors.New("no wallet configured: set a private key or a keystore pathname")

type WalletConfig struct {
	Pathname   string `koanf:"pathname"`
	Password   string `koanf:"password"`
	PrivateKey string `koanf:"private-key"`
	Account    string `koanf:"account"`
}

func (w *WalletConfig) Pwd() *string {
	if w.Password == PASSWORD_NOT_SET {
		return nil
	}
	return &w.Password
}

var WalletConfigDefault = WalletConfig{
	Pathname:   "",
	Password:   PASSWORD_NOT_SET,
	PrivateKey: "",
	Account:    "",
}

func WalletConfigAddOptions(prefix string, f *flag.FlagSet, defaultPathname string) {
	f.String(prefix+".pathname", defaultPathname, "pathname for wallet")
	f.String(prefix+".password", WalletConfigDefault.Password, "wallet passphrase")
	f.String(prefix+".private-key", WalletConfigDefault.PrivateKey, "private key for wallet")
	f.String(prefix+".account", WalletConfigDefault.Account, "account to use (default is first account in keystore)")
}

// OpenWallet returns a signer for chainId, preferring an explicit private key over the keystore.
func OpenWallet(description string, walletConfig *WalletConfig, chainId *big.Int) (*bind.TransactOpts, error) {
	if walletConfig.PrivateKey != "" {
		privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(walletConfig.PrivateKey, "0x"))
		if err != nil {
			return nil, fmt.Errorf("invalid %s private key: %w", description, err)
		}
		opts, err := bind.NewKeyedTransactorWithChainID(privateKey, chainId)
		if err != nil {
			return nil, err
		}
		log.Info("opened wallet", "description", description, "address", opts.From)
		return opts, nil
	}
	if walletConfig.Pathname == "" {
		return nil, fmt.Errorf("%s: %w", description, ErrNoWallet)
	}
	password := ""
	if pwd := walletConfig.Pwd(); pwd != nil {
		password = *pwd
	}
	opts, err := transactOptsFromKeystore(walletConfig.Pathname, walletConfig.Account, password, chainId)
	if err != nil {
		return nil, fmt.Errorf("opening %s keystore: %w", description, err)
	}
	log.Info("opened wallet", "description", description, "address", opts.From)
	return opts, nil
}

func transactOptsFromKeystore(keystorePath, accountAddress, passphrase string, chainId *big.Int) (*bind.TransactOpts, error) {
	ks := keystore.NewKeyStore(keystorePath, keystore.StandardScryptN, keystore.StandardScryptP)
	var account accounts.Account
	if accountAddress == "" {
		if len(ks.Accounts()) == 0 {
			return nil, errors.New("keystore empty")
		}
		account = ks.Accounts()[0]
	} else {
		var err error
		account, err = ks.Find(accounts.Account{Address: common.HexToAddress(accountAddress)})
		if err != nil {
			return nil, err
		}
	}
	if err := ks.Unlock(account, passphrase); err != nil {
		return nil, err
	}
	return bind.NewKeyStoreTransactorWithChainID(ks, account, chainId)
}

package domain

import "github.com/ethereum/go-ethereum/common"

// Ownable holds the single administrator of a contract.
type Ownable struct {
	Owner common.Address
}

func NewOwnable(owner common.Address) (Ownable, error) {
	if owner == (common.Address{}) {
		return Ownable{}, ErrInvalidOwner
	}
	return Ownable{owner}, nil
}

// OnlyOwner fails unless caller is the owner.
func (o Ownable) OnlyOwner(caller common.Address) error {
	if caller != o.Owner {
		return ErrUnauthorizedAccount
	}
	return nil
}

// TransferOwnership hands the contract over to newOwner and returns the
// previous owner.
func (o *Ownable) TransferOwnership(
	caller, newOwner common.Address,
) (common.Address, error) {
	if err := o.OnlyOwner(caller); err != nil {
		return common.Address{}, err
	}
	if newOwner == (common.Address{}) {
		return common.Address{}, ErrInvalidOwner
	}
	prev := o.Owner
	o.Owner = newOwner
	return prev, nil
}

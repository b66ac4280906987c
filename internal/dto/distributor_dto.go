package dto

import "time"

type DistributorRequest struct {
	CustomerAccount  string `json:"CUSTOMERACCOUNT"  validate:"required,max=64"`
	SMCode           string `json:"SMCODE"           validate:"max=64"`
	OrganizationName string `json:"ORGANIZATIONNAME" validate:"max=255"`
	AddressCity      string `json:"ADDRESSCITY"      validate:"max=120"`
	CustomerGroupID  string `json:"CUSTOMERGROUPID"  validate:"max=64"`
}

type UpdateDistributorRequest struct {
	SMCode           *string `json:"SMCODE"           validate:"omitempty,max=64"`
	OrganizationName *string `json:"ORGANIZATIONNAME" validate:"omitempty,max=255"`
	AddressCity      *string `json:"ADDRESSCITY"      validate:"omitempty,max=120"`
	CustomerGroupID  *string `json:"CUSTOMERGROUPID"  validate:"omitempty,max=64"`
}

type DistributorResponse struct {
	ID               string    `json:"id"`
	CustomerAccount  string    `json:"CUSTOMERACCOUNT"`
	SMCode           string    `json:"SMCODE"`
	OrganizationName string    `json:"ORGANIZATIONNAME"`
	AddressCity      string    `json:"ADDRESSCITY"`
	CustomerGroupID  string    `json:"CUSTOMERGROUPID"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

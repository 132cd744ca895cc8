package typedesc

import "time"

type FirstName string

func (FirstName) DataType() string { return "FirstName" }

type LastName string

func (LastName) DataType() string { return "LastName" }

type DateOfBirth time.Time

func (DateOfBirth) DataType() string { return "DateOfBirth" }

type HouseNumber string

func (HouseNumber) DataType() string { return "addresses.HouseNumber" }

type StreetName string

func (*StreetName) DataType() string { return "addresses.StreetName" }

type Address struct {
	HouseNumber HouseNumber
	StreetName  StreetName
}

type Person struct {
	FirstName   FirstName
	LastName    LastName
	DateOfBirth DateOfBirth
	FullName    string `json:"-"`
}

func (Person) DataType() string { return "Person" }

type Target struct {
	FirstName FirstName `json:"firstName"`
	Address   Address   `json:"address"`
}

type Empty struct{}

type Tags []string

func (Tags) DataType() string { return "Tags" }

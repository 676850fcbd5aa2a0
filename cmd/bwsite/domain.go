package main

import (
	"github.com/basewarphq/bwsite/bwsite/bwsitedomain"
)

type DomainCmd struct {
	FQDN string `arg:"" name:"fqdn" help:"Fully qualified domain name, e.g. www.example.com."`
	Zone string `help:"Hosted zone the domain is served from. Defaults to the parent domain."`
}

func (c *DomainCmd) Run(rep *reporter) error {
	parts, err := bwsitedomain.Split(c.FQDN)
	if err != nil {
		return err
	}
	zone, err := bwsitedomain.ZoneName(c.FQDN, c.Zone)
	if err != nil {
		return err
	}

	sub := parts.Subdomain
	if sub == "" {
		sub = "-"
	}
	rep.Table(nil, [][]string{
		{"fqdn", parts.FQDN()},
		{"subdomain", sub},
		{"parent", parts.ParentDomain},
		{"zone", zone},
	})
	return nil
}

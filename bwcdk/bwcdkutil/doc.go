// Package bwcdkutil holds the app-level plumbing shared by the bwcdk constructs.
//
// [SetupApp] reads the CDK context, validates it and creates the stacks: an
// optional shared stack in the primary region and one stack per deployment.
// Constructs that must live in us-east-1, such as CloudFront certificates,
// ask [NewEdgeStack] for a sibling stack which the deployment stack then
// depends on.
//
// The context keys carry the app prefix. For the prefix "bwsite-":
//
//	{
//	  "bwsite-qualifier": "bwsite",
//	  "bwsite-primary-region": "eu-west-1",
//	  "bwsite-deployments": ["Stag", "Prod"]
//	}
//
// Setting "bwsite-deployment" (cdk -c bwsite-deployment=Prod) synthesizes
// only that deployment. See infra/cdk for the app that wires it together.
//
// Physical names come from [ResourceName] so every resource of a deployment
// shares the "{qualifier}-{deployment}" prefix.
package bwcdkutil

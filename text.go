package main

var (
	AboutMe = `I build tools for people who review, audit and steer machine output: software that keeps
	a human in the loop without slowing them down. Most projects start as a workaround for my own
	workflow and grow into something other people can use. Each project card below has a pulse:
	the busier the repository was this week, the faster its heart beats.`

	ProjectFulcrum = `A management tool for running annotation and review teams: queues, assignments and
	throughput at a glance, built to keep long-running projects balanced.`

	ProjectCornea = `An analysis tool that looks at AI-generated work the way an expert would, surfacing
	weak spots and inconsistencies before they reach a reviewer.`

	ProjectAuditorHelper = `A small utility that automates the repetitive parts of auditing tasks, from
	timing sessions to drafting structured feedback.`
)

// projectCopy maps tracked project IDs to their card title and blurb.
var projectCopy = map[string][2]string{
	"fulcrum":        {"Fulcrum", ProjectFulcrum},
	"cornea":         {"Cornea", ProjectCornea},
	"auditor_helper": {"Auditor Helper", ProjectAuditorHelper},
}

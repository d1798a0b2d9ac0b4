package prompts

const analystSystem = "You are a senior requirements analyst. Be precise and concise."

const developerSystem = "You are an experienced software developer. You write correct, idiomatic ${language} code with focused unit tests."

var defaultTemplates = map[string]Template{
	Clarify: {
		System: analystSystem,
		User: `Analyse the requirement below and list up to ${max_questions} clarification questions a developer would need answered to implement it correctly and unambiguously.
Mark each question with priority "required" when the implementation cannot proceed without it, otherwise "desirable".
If the requirement is already clear, return an empty list.

Requirement:
${requirement}

Respond only with JSON in this shape:
{"ambiguous": true, "questions": [{"question": "...", "priority": "required", "reason": "..."}]}`,
	},
	Answer: {
		System: analystSystem,
		User: `Answer the clarification question below with a short, direct answer that a stakeholder would plausibly give for this requirement.

Requirement:
${requirement}

Question (${priority}): ${question}

Answer with one or two sentences and nothing else.`,
	},
	Refine: {
		System: analystSystem,
		User: `Refine the requirement using the answers to the clarification questions. Produce one complete, unambiguous requirement that keeps everything the original states.

Original requirement:
${requirement}

Questions and answers:
${answers}

Return only the refined requirement text.`,
	},
	SequenceDiagram: {
		System: "You are a software architect who documents designs in PlantUML.",
		User: `Produce a PlantUML sequence diagram for the requirement below showing the main participants, the interactions between them and the order of calls.

Requirement:
${requirement}

Return the diagram between @startuml and @enduml, followed by a one paragraph description.`,
	},
	ClassDiagram: {
		System: "You are a software architect who documents designs in PlantUML.",
		User: `Produce a PlantUML class diagram for the requirement below if it involves several entities or classes, with their attributes, methods and relationships.
If a class diagram does not apply, answer exactly: NOT APPLICABLE

Requirement:
${requirement}

Return the diagram between @startuml and @enduml, followed by a one paragraph description.`,
	},
	Generate: {
		System: developerSystem,
		User: `Implement the requirement below in ${language}.

Requirement:
${requirement}
${design}
Return exactly two fenced code blocks:
1. A block tagged ${language} with the implementation. It will be saved as ${code_file}.
2. A block tagged "${language} test" with ${test_framework} tests. It will be saved as ${test_file} and must import from ${module_name}.
After the blocks, add a short explanation.`,
	},
	Repair: {
		System: developerSystem,
		User: `Repair the ${language} code below. These verification checks failed: ${failed_oracles}

Failure summary:
${failure_summary}

Requirement:
${requirement}

Current implementation (${code_file}):
` + "```${language}\n${code}\n```" + `

Current tests (${test_file}):
` + "```${language} test\n${tests}\n```" + `

Return the corrected implementation in a block tagged ${language}. Return a block tagged "${language} test" only when the tests themselves are wrong.`,
	},
}

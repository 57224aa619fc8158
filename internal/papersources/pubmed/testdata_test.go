package pubmed

// Fixtures shared by the parser and client tests.

const esearchResponseXML = `<?xml version="1.0" encoding="UTF-8" ?>
<!DOCTYPE eSearchResult PUBLIC "-//NLM//DTD esearch 20060628//EN" "https://eutils.ncbi.nlm.nih.gov/eutils/dtd/20060628/esearch.dtd">
<eSearchResult>
	<Count>2</Count>
	<RetMax>2</RetMax>
	<RetStart>0</RetStart>
	<IdList>
		<Id>111</Id>
		<Id>222</Id>
	</IdList>
</eSearchResult>`

const esearchEmptyResponseXML = `<?xml version="1.0" encoding="UTF-8" ?>
<eSearchResult>
	<Count>0</Count>
	<RetMax>0</RetMax>
	<RetStart>0</RetStart>
	<IdList>
	</IdList>
</eSearchResult>`

const esearchPhraseNotFoundXML = `<?xml version="1.0" encoding="UTF-8" ?>
<eSearchResult>
	<Count>0</Count>
	<RetMax>0</RetMax>
	<RetStart>0</RetStart>
	<IdList>
	</IdList>
	<ErrorList>
		<PhraseNotFound>nonexistent_term_xyz</PhraseNotFound>
	</ErrorList>
</eSearchResult>`

const esearchErrorXML = `<?xml version="1.0" encoding="UTF-8" ?>
<eSearchResult>
	<ERROR>Invalid query syntax</ERROR>
</eSearchResult>`

// efetchAspirinXML answers a fetch for 111 and 222. Record 222 has no abstract.
const efetchAspirinXML = `<?xml version="1.0" encoding="UTF-8" ?>
<!DOCTYPE PubmedArticleSet PUBLIC "-//NLM//DTD PubMedArticle, 1st January 2019//EN" "https://dtd.nlm.nih.gov/ncbi/pubmed/out/pubmed_190101.dtd">
<PubmedArticleSet>
	<PubmedArticle>
		<MedlineCitation Status="MEDLINE" Owner="NLM">
			<PMID Version="1">111</PMID>
			<Article PubModel="Print-Electronic">
				<Journal>
					<ISSN IssnType="Electronic">1234-5678</ISSN>
					<JournalIssue CitedMedium="Internet">
						<Volume>25</Volume>
						<Issue>3</Issue>
						<PubDate>
							<Year>2023</Year>
							<Month>Mar</Month>
							<Day>15</Day>
						</PubDate>
					</JournalIssue>
					<Title>The Lancet</Title>
					<ISOAbbreviation>Lancet</ISOAbbreviation>
				</Journal>
				<ArticleTitle>Aspirin after myocardial infarction</ArticleTitle>
				<Pagination>
					<MedlinePgn>123-145</MedlinePgn>
				</Pagination>
				<ELocationID EIdType="doi" ValidYN="Y">10.1234/lancet.2023.001</ELocationID>
				<Abstract>
					<AbstractText Label="BACKGROUND" NlmCategory="BACKGROUND">Aspirin reduces recurrent events.</AbstractText>
					<AbstractText Label="RESULTS" NlmCategory="RESULTS">Mortality fell by a fifth.</AbstractText>
				</Abstract>
				<AuthorList CompleteYN="Y">
					<Author ValidYN="Y">
						<LastName>Smith</LastName>
						<ForeName>John A</ForeName>
						<Initials>JA</Initials>
						<AffiliationInfo>
							<Affiliation>Department of Cardiology</Affiliation>
						</AffiliationInfo>
					</Author>
					<Author ValidYN="Y">
						<LastName>Johnson</LastName>
						<ForeName>Emily</ForeName>
						<Initials>E</Initials>
					</Author>
				</AuthorList>
			</Article>
			<MeshHeadingList>
				<MeshHeading>
					<DescriptorName UI="D001241" MajorTopicYN="Y">Aspirin</DescriptorName>
				</MeshHeading>
			</MeshHeadingList>
		</MedlineCitation>
		<PubmedData>
			<PublicationStatus>ppublish</PublicationStatus>
			<ArticleIdList>
				<ArticleId IdType="pubmed">111</ArticleId>
				<ArticleId IdType="doi">10.1234/lancet.2023.001</ArticleId>
			</ArticleIdList>
		</PubmedData>
	</PubmedArticle>
	<PubmedArticle>
		<MedlineCitation Status="MEDLINE" Owner="NLM">
			<PMID Version="1">222</PMID>
			<Article PubModel="Print">
				<Journal>
					<JournalIssue CitedMedium="Print">
						<Volume>10</Volume>
						<PubDate>
							<MedlineDate>2022 Jan-Feb</MedlineDate>
						</PubDate>
					</JournalIssue>
					<Title>Heart</Title>
				</Journal>
				<ArticleTitle>Antiplatelet therapy in practice</ArticleTitle>
				<AuthorList CompleteYN="Y">
					<Author ValidYN="Y">
						<LastName>Brown</LastName>
						<ForeName>Michael</ForeName>
						<Initials>M</Initials>
					</Author>
				</AuthorList>
			</Article>
		</MedlineCitation>
		<PubmedData>
			<ArticleIdList>
				<ArticleId IdType="pubmed">222</ArticleId>
			</ArticleIdList>
		</PubmedData>
	</PubmedArticle>
</PubmedArticleSet>`

const efetchEmptyResponseXML = `<?xml version="1.0" encoding="UTF-8" ?>
<PubmedArticleSet>
</PubmedArticleSet>`

// articleXML builds a minimal PubmedArticle for pmid.
func articleXML(pmid, title string) string {
	return `<PubmedArticle><MedlineCitation><PMID>` + pmid + `</PMID><Article>` +
		`<Journal><JournalIssue><PubDate><Year>2020</Year></PubDate></JournalIssue><Title>J</Title></Journal>` +
		`<ArticleTitle>` + title + `</ArticleTitle>` +
		`<Abstract><AbstractText>Abstract ` + pmid + `</AbstractText></Abstract>` +
		`</Article></MedlineCitation></PubmedArticle>`
}

func articleSetXML(articles ...string) string {
	out := `<?xml version="1.0" encoding="UTF-8" ?><PubmedArticleSet>`
	for _, a := range articles {
		out += a
	}
	return out + `</PubmedArticleSet>`
}

func esearchXML(ids ...string) string {
	out := `<?xml version="1.0" encoding="UTF-8" ?><eSearchResult><IdList>`
	for _, id := range ids {
		out += `<Id>` + id + `</Id>`
	}
	return out + `</IdList></eSearchResult>`
}
